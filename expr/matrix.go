// Package expr holds replicate-resolved expression data: a gene x sample
// matrix of normalized, length-corrected expression values, with a cell-type
// group label attached to each sample column. Samples sharing a group label
// are biological replicates of that cell type.
//
// Matrices are validated and their group set is resolved once, at
// construction. After that they are treated as immutable and may be shared
// across goroutines.
package expr

import (
	"math"
)

// Matrix is a gene x sample expression matrix with per-sample group labels.
type Matrix struct {
	// Species is an optional tag identifying which species the samples came
	// from. It does not affect any computation.
	Species string

	genes   []string
	samples []string
	labels  []string    // one group label per sample column
	values  [][]float64 // one row per gene

	groups    []string         // distinct group labels, in order of first appearance
	groupCols map[string][]int // group label => column indices
	geneIdx   map[string]int   // gene id => row index
}

// New builds a Matrix from a gene list, a sample list, one row of values per
// gene, and one group label per sample. The inputs are copied. At least two
// distinct groups must be present, every label must be non-empty, and all
// values must be finite and non-negative.
func New(genes, samples []string, values [][]float64, groupLabels []string) (*Matrix, error) {
	if len(values) != len(genes) {
		return nil, ShapeMismatchError{Reason: "row count does not match gene count", Want: len(genes), Got: len(values)}
	}
	if len(groupLabels) != len(samples) {
		return nil, ShapeMismatchError{Reason: "group label count does not match sample count", Want: len(samples), Got: len(groupLabels)}
	}

	m := &Matrix{
		genes:     make([]string, len(genes)),
		samples:   make([]string, len(samples)),
		labels:    make([]string, len(groupLabels)),
		values:    make([][]float64, len(values)),
		groupCols: make(map[string][]int),
		geneIdx:   make(map[string]int),
	}
	copy(m.genes, genes)
	copy(m.samples, samples)
	copy(m.labels, groupLabels)

	for i, id := range m.genes {
		if id == "" {
			return nil, ShapeMismatchError{Reason: "empty gene identifier", Want: 1, Got: 0}
		}
		if _, seen := m.geneIdx[id]; seen {
			return nil, ShapeMismatchError{Reason: "duplicate gene identifier " + id, Want: 1, Got: 2}
		}
		m.geneIdx[id] = i
	}

	for i, row := range values {
		if len(row) != len(samples) {
			return nil, ShapeMismatchError{Reason: "row length for gene " + m.genes[i] + " does not match sample count", Want: len(samples), Got: len(row)}
		}
		for _, v := range row {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, ShapeMismatchError{Reason: "gene " + m.genes[i] + " has a negative or non-finite value", Want: 0, Got: 1}
			}
		}
		m.values[i] = make([]float64, len(row))
		copy(m.values[i], row)
	}

	// Resolve the group set once, in order of first appearance.
	for col, label := range m.labels {
		if label == "" {
			return nil, ShapeMismatchError{Reason: "empty group label for sample " + m.samples[col], Want: 1, Got: 0}
		}
		if _, seen := m.groupCols[label]; !seen {
			m.groups = append(m.groups, label)
		}
		m.groupCols[label] = append(m.groupCols[label], col)
	}

	if len(m.groups) < 2 {
		return nil, DegenerateInputError{Groups: append([]string{}, m.groups...)}
	}

	return m, nil
}

// NumGenes returns the number of gene rows.
func (m *Matrix) NumGenes() int { return len(m.genes) }

// NumSamples returns the number of sample columns.
func (m *Matrix) NumSamples() int { return len(m.samples) }

// Genes returns the gene identifiers in row order. The returned slice is
// shared and must not be modified.
func (m *Matrix) Genes() []string { return m.genes }

// Samples returns the sample identifiers in column order. The returned slice
// is shared and must not be modified.
func (m *Matrix) Samples() []string { return m.samples }

// Groups returns the distinct group labels in order of first appearance. The
// returned slice is shared and must not be modified.
func (m *Matrix) Groups() []string { return m.groups }

// GeneIndex returns the row index for a gene identifier.
func (m *Matrix) GeneIndex(gene string) (int, bool) {
	i, ok := m.geneIdx[gene]
	return i, ok
}

// GroupColumns returns the sample column indices belonging to a group. The
// returned slice is shared and must not be modified.
func (m *Matrix) GroupColumns(group string) []int { return m.groupCols[group] }

// Row returns one gene's values across all samples. The returned slice is
// shared and must not be modified.
func (m *Matrix) Row(gene int) []float64 { return m.values[gene] }

// MeanOver averages one gene's values over the given sample columns. Columns
// may repeat (bootstrap draws).
func (m *Matrix) MeanOver(gene int, cols []int) float64 {
	if len(cols) == 0 {
		return 0
	}

	row := m.values[gene]
	sum := 0.0
	for _, c := range cols {
		sum += row[c]
	}

	return sum / float64(len(cols))
}

// GroupMeans returns one gene's mean expression within each group, in Groups()
// order.
func (m *Matrix) GroupMeans(gene int) []float64 {
	out := make([]float64, len(m.groups))
	for gi, g := range m.groups {
		out[gi] = m.MeanOver(gene, m.groupCols[g])
	}

	return out
}

// ExcludeGroup derives a new Matrix without one group's sample columns. This
// is used to balance group sets across species when one species lacks a cell
// type. At least two groups must remain.
func (m *Matrix) ExcludeGroup(group string) (*Matrix, error) {
	if _, ok := m.groupCols[group]; !ok {
		return nil, ShapeMismatchError{Reason: "unknown group " + group, Want: 1, Got: 0}
	}

	keep := make([]int, 0, len(m.samples))
	for col, label := range m.labels {
		if label != group {
			keep = append(keep, col)
		}
	}

	samples := make([]string, 0, len(keep))
	labels := make([]string, 0, len(keep))
	for _, col := range keep {
		samples = append(samples, m.samples[col])
		labels = append(labels, m.labels[col])
	}

	values := make([][]float64, len(m.genes))
	for i, row := range m.values {
		sub := make([]float64, 0, len(keep))
		for _, col := range keep {
			sub = append(sub, row[col])
		}
		values[i] = sub
	}

	out, err := New(m.genes, samples, values, labels)
	if err != nil {
		return nil, err
	}
	out.Species = m.Species

	return out, nil
}
