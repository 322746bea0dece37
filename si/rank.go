package si

import (
	"fmt"
	"sort"
)

// LookupError indicates that a requested gene or group is absent from a
// Table.
type LookupError struct {
	Gene  string
	Group string
}

func (e LookupError) Error() string {
	if e.Gene == "" {
		return fmt.Sprintf("si: group %q not found in table", e.Group)
	}

	return fmt.Sprintf("si: gene %q not found in table (group %q)", e.Gene, e.Group)
}

// order returns gene row indices sorted descending by the group's score.
// The sort is stable, so ties keep their original gene order. Every ranking
// operation in this package derives from this one ordering.
func order(t *Table, groupCol int) []int {
	idx := make([]int, len(t.Genes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return t.Scores[idx[a]][groupCol] > t.Scores[idx[b]][groupCol]
	})

	return idx
}

// TopN returns the n genes with the highest specificity scores for a group,
// most specific first. Ties are broken by original gene order. If n exceeds
// the number of genes, all genes are returned.
func TopN(t *Table, group string, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("si: topN requires n >= 1, got %d", n)
	}
	gc, ok := t.GroupColumn(group)
	if !ok {
		return nil, LookupError{Group: group}
	}

	idx := order(t, gc)
	if n > len(idx) {
		n = len(idx)
	}

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = t.Genes[idx[i]]
	}

	return out, nil
}

// Ranks returns every gene's 1-based rank within a group, aligned with
// t.Genes. Competition ranking: genes with equal scores share the rank of the
// first of their tied run, and the next distinct score resumes at its
// positional rank.
func Ranks(t *Table, group string) ([]int, error) {
	gc, ok := t.GroupColumn(group)
	if !ok {
		return nil, LookupError{Group: group}
	}

	idx := order(t, gc)
	ranks := make([]int, len(idx))

	for pos, gene := range idx {
		rank := pos + 1
		if pos > 0 && t.Scores[gene][gc] == t.Scores[idx[pos-1]][gc] {
			rank = ranks[idx[pos-1]]
		}
		ranks[gene] = rank
	}

	return ranks, nil
}

// RankOf returns the 1-based rank of each queried gene within a group, where
// rank is the gene's position among all genes in the table (not just the
// queried subset) sorted by descending score. A queried gene absent from the
// table fails with a LookupError naming that gene.
func RankOf(genes []string, t *Table, group string) (map[string]int, error) {
	all, err := Ranks(t, group)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(genes))
	for _, gene := range genes {
		row, ok := t.GeneRow(gene)
		if !ok {
			return nil, LookupError{Gene: gene, Group: group}
		}
		out[gene] = all[row]
	}

	return out, nil
}
