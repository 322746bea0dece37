package si

import (
	"fmt"

	"github.com/exprtools/specidx/expr"
)

// Compute calculates the full specificity table for a matrix: for each gene,
// the mean expression within each group, clamped at bottomThreshold, divided
// by the sum of the clamped means across all groups.
//
// bottomThreshold is a floor below which a group mean is treated as exactly
// at floor. It guards against spurious high specificity when all of a gene's
// group means sit at noise level. With the default of 0, a gene whose means
// are all zero scores uniformly 1/k across the k groups.
func Compute(m *expr.Matrix, bottomThreshold float64) (*Table, error) {
	if bottomThreshold < 0 {
		return nil, fmt.Errorf("si: bottomThreshold must be >= 0, got %g", bottomThreshold)
	}

	groups := m.Groups()
	genes := m.Genes()

	scores := make([][]float64, len(genes))
	for i := range genes {
		scores[i] = ScoreMeans(m.GroupMeans(i), bottomThreshold)
	}

	return NewTable(genes, groups, scores), nil
}

// ScoreMeans converts one gene's per-group means into per-group specificity
// scores: clamp each mean at bottomThreshold, then take each clamped mean as
// a fraction of their sum. A zero sum (all means zero with a zero threshold)
// yields a uniform row - a deliberate tie across all groups.
func ScoreMeans(means []float64, bottomThreshold float64) []float64 {
	out := make([]float64, len(means))

	sum := 0.0
	for i, v := range means {
		if v < bottomThreshold {
			v = bottomThreshold
		}
		out[i] = v
		sum += v
	}

	if sum == 0 {
		uniform := 1.0 / float64(len(means))
		for i := range out {
			out[i] = uniform
		}
		return out
	}

	for i := range out {
		out[i] /= sum
	}

	return out
}
