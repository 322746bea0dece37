package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/exprtools/specidx/ortho"
	"github.com/exprtools/specidx/si"
)

// importTable reads a specificity table CSV as written by sicompute:
// a gene_id column followed by one score column per group.
func importTable(path string) (*si.Table, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(fileBytes))

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: could not read header: %w", path, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%s: expected a gene id column plus at least one group column", path)
	}
	groups := header[1:]

	var genes []string
	var scores [][]float64
	seen := make(map[string]bool)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%s: gene %q has %d fields, want %d", path, rec[0], len(rec), len(header))
		}
		if seen[rec[0]] {
			// A duplicate would shadow the earlier row in rank lookups.
			return nil, fmt.Errorf("%s: duplicate gene identifier %q", path, rec[0])
		}
		seen[rec[0]] = true

		row := make([]float64, len(groups))
		for i, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: gene %q, group %q: %w", path, rec[0], groups[i], err)
			}
			row[i] = v
		}

		genes = append(genes, rec[0])
		scores = append(scores, row)
	}

	return si.NewTable(genes, groups, scores), nil
}

// exportComparison writes the dense rank table: one row per reference gene,
// one column per species, NA for a missing ortholog.
func exportComparison(path string, rc *ortho.RankComparison) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(append([]string{"gene_id"}, rc.Species...)); err != nil {
		return err
	}

	rec := make([]string, 1+len(rc.Species))
	for gi, gene := range rc.Genes {
		rec[0] = gene
		for col := range rc.Species {
			if cell := rc.Ranks[gi][col]; cell.Valid {
				rec[1+col] = strconv.FormatInt(cell.Int64, 10)
			} else {
				rec[1+col] = "NA"
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
