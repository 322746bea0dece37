package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/csimplestring/go-csv/detector"
	"github.com/gocarina/gocsv"

	"github.com/exprtools/specidx/expr"
)

// SampleAnnotation maps one sample column to its group and, optionally, its
// species.
type SampleAnnotation struct {
	Sample  string `csv:"sample"`
	Group   string `csv:"group"`
	Species string `csv:"species"`
}

// determineDelimiter returns the single most likely rune delimiting the
// values in the reader, assuming a CSV-like file.
func determineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// importMatrix reads a gene x sample expression CSV (first column gene id,
// remaining columns one sample each) plus a sample annotation CSV, and
// assembles the validated expression matrix.
func importMatrix(matrixFile, annotFile string) (*expr.Matrix, error) {
	annots, err := importAnnotations(annotFile)
	if err != nil {
		return nil, err
	}

	fileBytes, err := os.ReadFile(matrixFile)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(fileBytes))
	r.Comma = determineDelimiter(bytes.NewReader(fileBytes))

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: could not read header: %w", matrixFile, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%s: expected a gene id column plus at least one sample column", matrixFile)
	}
	samples := header[1:]

	labels := make([]string, len(samples))
	species := ""
	for i, s := range samples {
		annot, ok := annots[s]
		if !ok {
			return nil, fmt.Errorf("%s: sample %q has no entry in %s", matrixFile, s, annotFile)
		}
		labels[i] = annot.Group
		if species == "" {
			species = annot.Species
		}
	}

	var genes []string
	var values [][]float64
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%s: gene %q has %d fields, want %d", matrixFile, rec[0], len(rec), len(header))
		}

		row := make([]float64, len(samples))
		for i, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: gene %q, sample %q: %w", matrixFile, rec[0], samples[i], err)
			}
			row[i] = v
		}

		genes = append(genes, rec[0])
		values = append(values, row)
	}

	m, err := expr.New(genes, samples, values, labels)
	if err != nil {
		return nil, err
	}
	m.Species = species

	return m, nil
}

func importAnnotations(annotFile string) (map[string]SampleAnnotation, error) {
	fileBytes, err := os.ReadFile(annotFile)
	if err != nil {
		return nil, err
	}

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = determineDelimiter(bytes.NewReader(fileBytes))
		r.LazyQuotes = true
		return r
	})

	records := []*SampleAnnotation{}
	if err := gocsv.UnmarshalBytes(fileBytes, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", annotFile, err)
	}

	out := make(map[string]SampleAnnotation, len(records))
	for _, rec := range records {
		out[rec.Sample] = *rec
	}

	return out, nil
}
