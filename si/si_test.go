package si

import (
	"errors"
	"math"
	"testing"

	"github.com/exprtools/specidx/expr"
)

const tol = 1e-9

func twoGeneMatrix(t *testing.T) *expr.Matrix {
	t.Helper()

	m, err := expr.New(
		[]string{"A", "B"},
		[]string{"s1", "s2", "s3"},
		[][]float64{
			{10, 10, 0},
			{1, 1, 9},
		},
		[]string{"X", "X", "Y"},
	)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestComputeTwoGeneScenario(t *testing.T) {
	m := twoGeneMatrix(t)

	// With a floor of 1, gene A's zero mean in Y is clamped: A_X = 10/11,
	// A_Y = 1/11. Gene B is unaffected: B_X = 1/10, B_Y = 9/10.
	tbl, err := Compute(m, 1)
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []struct {
		gene  string
		group string
		want  float64
	}{
		{"A", "X", 10.0 / 11.0},
		{"A", "Y", 1.0 / 11.0},
		{"B", "X", 0.1},
		{"B", "Y", 0.9},
	} {
		got, err := tbl.Score(v.gene, v.group)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-v.want) > tol {
			t.Errorf("Score(%s, %s): got %.6f, want %.6f", v.gene, v.group, got, v.want)
		}
	}

	top, err := TopN(tbl, "Y", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0] != "B" {
		t.Errorf("TopN(Y, 1): got %v, want [B]", top)
	}

	ranks, err := RankOf([]string{"A", "B"}, tbl, "X")
	if err != nil {
		t.Fatal(err)
	}
	if ranks["A"] != 1 || ranks["B"] != 2 {
		t.Errorf("RankOf(X): got %v, want A:1 B:2", ranks)
	}
}

func TestScoresPartitionUnity(t *testing.T) {
	m, err := expr.New(
		[]string{"A", "B", "C"},
		[]string{"s1", "s2", "s3", "s4"},
		[][]float64{
			{5, 3, 0, 2},
			{0, 0, 0, 0},
			{1, 1, 1, 1},
		},
		[]string{"X", "X", "Y", "Z"},
	)
	if err != nil {
		t.Fatal(err)
	}

	tbl, err := Compute(m, 0)
	if err != nil {
		t.Fatal(err)
	}

	for i, gene := range tbl.Genes {
		sum := 0.0
		for j := range tbl.Groups {
			sum += tbl.Scores[i][j]
		}
		if math.Abs(sum-1) > tol {
			t.Errorf("gene %s: scores sum to %.12f, want 1", gene, sum)
		}
	}
}

func TestAllZeroGeneIsUniform(t *testing.T) {
	m, err := expr.New(
		[]string{"Z"},
		[]string{"s1", "s2", "s3"},
		[][]float64{{0, 0, 0}},
		[]string{"X", "Y", "Z"},
	)
	if err != nil {
		t.Fatal(err)
	}

	tbl, err := Compute(m, 0)
	if err != nil {
		t.Fatal(err)
	}

	for j, group := range tbl.Groups {
		if math.Abs(tbl.Scores[0][j]-1.0/3.0) > tol {
			t.Errorf("group %s: got %.6f, want 1/3", group, tbl.Scores[0][j])
		}
	}
}

func TestClampedMeansTieAtRankOne(t *testing.T) {
	// Two genes whose group means (2, 3) and (3, 2) all sit below the floor
	// of 5: both clamp to (5, 5), scoring 0.5 everywhere and sharing rank 1.
	m, err := expr.New(
		[]string{"A", "B"},
		[]string{"s1", "s2"},
		[][]float64{
			{2, 3},
			{3, 2},
		},
		[]string{"X", "Y"},
	)
	if err != nil {
		t.Fatal(err)
	}

	tbl, err := Compute(m, 5)
	if err != nil {
		t.Fatal(err)
	}

	for _, gene := range []string{"A", "B"} {
		for _, group := range []string{"X", "Y"} {
			got, err := tbl.Score(gene, group)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-0.5) > tol {
				t.Errorf("Score(%s, %s): got %.6f, want 0.5", gene, group, got)
			}
		}
	}

	ranks, err := RankOf([]string{"A", "B"}, tbl, "X")
	if err != nil {
		t.Fatal(err)
	}
	if ranks["A"] != 1 || ranks["B"] != 1 {
		t.Errorf("tied ranks: got %v, want A:1 B:1", ranks)
	}
}

func TestMonotonicity(t *testing.T) {
	// Raising gene A's expression in X while holding everything else fixed
	// must never decrease A's specificity score for X.
	prev := -1.0
	for _, xval := range []float64{0, 1, 2, 5, 10, 100} {
		m, err := expr.New(
			[]string{"A"},
			[]string{"s1", "s2"},
			[][]float64{{xval, 4}},
			[]string{"X", "Y"},
		)
		if err != nil {
			t.Fatal(err)
		}
		tbl, err := Compute(m, 0.5)
		if err != nil {
			t.Fatal(err)
		}
		got, err := tbl.Score("A", "X")
		if err != nil {
			t.Fatal(err)
		}
		if got < prev-tol {
			t.Fatalf("score decreased from %.6f to %.6f when X mean rose to %g", prev, got, xval)
		}
		prev = got
	}
}

func TestTopNRankOfRoundTrip(t *testing.T) {
	m, err := expr.New(
		[]string{"A", "B", "C", "D", "E"},
		[]string{"s1", "s2"},
		[][]float64{
			{8, 1},
			{5, 1},
			{9, 1},
			{2, 1},
			{7, 1},
		},
		[]string{"X", "Y"},
	)
	if err != nil {
		t.Fatal(err)
	}

	tbl, err := Compute(m, 0)
	if err != nil {
		t.Fatal(err)
	}

	top, err := TopN(tbl, "X", 3)
	if err != nil {
		t.Fatal(err)
	}
	ranks, err := RankOf(top, tbl, "X")
	if err != nil {
		t.Fatal(err)
	}

	for i, gene := range top {
		if ranks[gene] != i+1 {
			t.Errorf("round trip: %s at topN position %d has rank %d", gene, i+1, ranks[gene])
		}
	}
}

func TestTopNTiesKeepGeneOrder(t *testing.T) {
	tbl := NewTable(
		[]string{"A", "B", "C"},
		[]string{"X", "Y"},
		[][]float64{
			{0.5, 0.5},
			{0.9, 0.1},
			{0.5, 0.5},
		},
	)

	top, err := TopN(tbl, "X", 3)
	if err != nil {
		t.Fatal(err)
	}
	if top[0] != "B" || top[1] != "A" || top[2] != "C" {
		t.Errorf("TopN with ties: got %v, want [B A C]", top)
	}

	ranks, err := RankOf([]string{"A", "B", "C"}, tbl, "X")
	if err != nil {
		t.Fatal(err)
	}
	if ranks["B"] != 1 || ranks["A"] != 2 || ranks["C"] != 2 {
		t.Errorf("competition ranks: got %v, want B:1 A:2 C:2", ranks)
	}
}

func TestLookupErrors(t *testing.T) {
	tbl := NewTable([]string{"A"}, []string{"X", "Y"}, [][]float64{{0.7, 0.3}})

	var lookup LookupError

	_, err := RankOf([]string{"A", "missing"}, tbl, "X")
	if !errors.As(err, &lookup) || lookup.Gene != "missing" {
		t.Errorf("RankOf with absent gene: got %v, want LookupError for missing", err)
	}

	_, err = TopN(tbl, "nogroup", 1)
	if !errors.As(err, &lookup) {
		t.Errorf("TopN with absent group: got %v, want LookupError", err)
	}

	if _, err := tbl.Score("A", "nogroup"); err == nil {
		t.Error("Score with absent group: expected an error")
	}
}

func TestNegativeThresholdRejected(t *testing.T) {
	m := twoGeneMatrix(t)
	if _, err := Compute(m, -1); err == nil {
		t.Error("expected an error for a negative bottom threshold")
	}
}

func TestTopNTruncatesToTableSize(t *testing.T) {
	tbl := NewTable([]string{"A", "B"}, []string{"X", "Y"}, [][]float64{{0.7, 0.3}, {0.2, 0.8}})

	top, err := TopN(tbl, "X", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Errorf("TopN beyond table size: got %d genes, want 2", len(top))
	}
}
