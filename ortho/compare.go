// Package ortho compares expression specificity rankings across species.
// Orthology is established upstream by a shared gene identifier scheme: the
// same label in two species' tables means the same ortholog.
package ortho

import (
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
	"gopkg.in/guregu/null.v3"

	"github.com/exprtools/specidx/si"
)

// MissingOrthologError indicates that a reference-species top gene has no
// entry in a target species' table.
type MissingOrthologError struct {
	Gene    string
	Species string
	Group   string
}

func (e MissingOrthologError) Error() string {
	return fmt.Sprintf("ortho: gene %q (group %q) has no ortholog entry in the %s table", e.Gene, e.Group, e.Species)
}

// RankComparison is a dense gene x species table of integer ranks: the
// reference species' topN genes for one group, ranked within each species'
// own specificity table for that same group. An invalid cell marks a missing
// ortholog.
type RankComparison struct {
	Group   string
	Genes   []string   // the reference species' topN, most specific first
	Species []string   // column order
	Ranks   [][]null.Int

	// Missing counts, per species, the reference genes skipped because they
	// had no entry in that species' table.
	Missing map[string]int
}

// Compare takes the topN genes for group in the reference species' table and
// looks up each gene's rank within every listed species' own table for the
// same group. The reference may appear in species (its ranks are then 1..n
// barring ties). By default a missing ortholog is skipped and counted; in
// strict mode it aborts with a MissingOrthologError.
func Compare(reference string, species []string, tables map[string]*si.Table, group string, topN int, strict bool) (*RankComparison, error) {
	refTable, ok := tables[reference]
	if !ok {
		return nil, fmt.Errorf("ortho: no table for reference species %q", reference)
	}
	if len(species) == 0 {
		species = []string{reference}
	}

	top, err := si.TopN(refTable, group, topN)
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := &RankComparison{
		Group:   group,
		Genes:   top,
		Species: species,
		Ranks:   make([][]null.Int, len(top)),
		Missing: make(map[string]int),
	}
	for i := range out.Ranks {
		out.Ranks[i] = make([]null.Int, len(species))
	}

	for col, sp := range species {
		tbl, ok := tables[sp]
		if !ok {
			return nil, fmt.Errorf("ortho: no table for species %q", sp)
		}

		present := make([]string, 0, len(top))
		for _, gene := range top {
			if _, ok := tbl.GeneRow(gene); ok {
				present = append(present, gene)
				continue
			}
			if strict {
				return nil, MissingOrthologError{Gene: gene, Species: sp, Group: group}
			}
			out.Missing[sp]++
		}

		ranks, err := si.RankOf(present, tbl, group)
		if err != nil {
			return nil, pfx.Err(err)
		}

		for gi, gene := range top {
			if r, ok := ranks[gene]; ok {
				out.Ranks[gi][col] = null.IntFrom(int64(r))
			}
		}
	}

	return out, nil
}

// MedianRanks returns, per species, the median rank of the reference top
// genes within that species' table, over non-missing cells. Species with no
// valid cells are absent from the result.
func (rc *RankComparison) MedianRanks() (map[string]float64, error) {
	out := make(map[string]float64, len(rc.Species))

	for col, sp := range rc.Species {
		vals := make([]float64, 0, len(rc.Genes))
		for gi := range rc.Genes {
			if cell := rc.Ranks[gi][col]; cell.Valid {
				vals = append(vals, float64(cell.Int64))
			}
		}
		if len(vals) == 0 {
			continue
		}

		med, err := stats.Median(vals)
		if err != nil {
			return nil, pfx.Err(err)
		}
		out[sp] = med
	}

	return out, nil
}
