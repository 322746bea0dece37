// Package si computes the specificity index: for every gene and every
// cell-type group, the fraction of the gene's total cross-group mean
// expression that is attributable to that group. A score near 1 means the
// gene is expressed almost exclusively in that group; scores across groups
// sum to 1 for each gene.
package si

// Table is a gene x group matrix of specificity scores. It is a derived,
// immutable output: recompute it rather than editing it in place.
type Table struct {
	Genes  []string
	Groups []string
	Scores [][]float64 // one row per gene, one column per group

	geneIdx  map[string]int
	groupIdx map[string]int
}

// NewTable assembles a Table and its lookup indexes. The slices are retained,
// not copied.
func NewTable(genes, groups []string, scores [][]float64) *Table {
	t := &Table{
		Genes:    genes,
		Groups:   groups,
		Scores:   scores,
		geneIdx:  make(map[string]int, len(genes)),
		groupIdx: make(map[string]int, len(groups)),
	}
	for i, g := range genes {
		t.geneIdx[g] = i
	}
	for i, g := range groups {
		t.groupIdx[g] = i
	}

	return t
}

// GeneRow returns the row index of a gene.
func (t *Table) GeneRow(gene string) (int, bool) {
	i, ok := t.geneIdx[gene]
	return i, ok
}

// GroupColumn returns the column index of a group.
func (t *Table) GroupColumn(group string) (int, bool) {
	i, ok := t.groupIdx[group]
	return i, ok
}

// Score returns the specificity score for one (gene, group) pair.
func (t *Table) Score(gene, group string) (float64, error) {
	i, ok := t.geneIdx[gene]
	if !ok {
		return 0, LookupError{Gene: gene, Group: group}
	}
	j, ok := t.groupIdx[group]
	if !ok {
		return 0, LookupError{Gene: gene, Group: group}
	}

	return t.Scores[i][j], nil
}
