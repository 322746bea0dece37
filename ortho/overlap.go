package ortho

import (
	"fmt"

	fet "github.com/glycerine/golang-fisher-exact"

	"github.com/exprtools/specidx/si"
)

// OverlapResult summarizes how strongly two species' top-N sets for one
// group overlap, over the universe of genes present in both tables.
type OverlapResult struct {
	Group    string
	Universe int // genes shared by both tables
	InBoth   int
	AOnly    int
	BOnly    int
	Neither  int
	P        float64 // two-sided Fisher's exact p-value
}

// OverlapTest builds the 2x2 contingency of top-N membership for two
// species' tables - in both top-N sets, in one only, in neither - restricted
// to their shared gene universe, and computes Fisher's exact test on it. A
// small p with a large InBoth says the two species concentrate the same
// orthologs in that group.
func OverlapTest(a, b *si.Table, group string, n int) (OverlapResult, error) {
	out := OverlapResult{Group: group}

	shared := make(map[string]struct{})
	for _, gene := range a.Genes {
		if _, ok := b.GeneRow(gene); ok {
			shared[gene] = struct{}{}
		}
	}
	if len(shared) == 0 {
		return out, fmt.Errorf("ortho: tables share no gene identifiers")
	}
	out.Universe = len(shared)

	topA, err := si.TopN(a, group, n)
	if err != nil {
		return out, err
	}
	topB, err := si.TopN(b, group, n)
	if err != nil {
		return out, err
	}

	inA := make(map[string]struct{}, len(topA))
	for _, gene := range topA {
		if _, ok := shared[gene]; ok {
			inA[gene] = struct{}{}
		}
	}
	inB := make(map[string]struct{}, len(topB))
	for _, gene := range topB {
		if _, ok := shared[gene]; ok {
			inB[gene] = struct{}{}
		}
	}

	for gene := range shared {
		_, hitA := inA[gene]
		_, hitB := inB[gene]
		switch {
		case hitA && hitB:
			out.InBoth++
		case hitA:
			out.AOnly++
		case hitB:
			out.BOnly++
		default:
			out.Neither++
		}
	}

	_, _, _, twop := fet.FisherExactTest(out.InBoth, out.AOnly, out.BOnly, out.Neither)
	out.P = twop

	return out, nil
}
