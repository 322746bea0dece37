package expr

import (
	"errors"
	"math"
	"testing"
)

func testMatrix(t *testing.T) *Matrix {
	t.Helper()

	m, err := New(
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

func TestGroupResolution(t *testing.T) {
	m := testMatrix(t)

	groups := m.Groups()
	if len(groups) != 2 || groups[0] != "X" || groups[1] != "Y" {
		t.Fatalf("Groups: got %v, want [X Y] in order of first appearance", groups)
	}

	if cols := m.GroupColumns("X"); len(cols) != 2 || cols[0] != 0 || cols[1] != 1 {
		t.Errorf("GroupColumns(X): got %v", cols)
	}
	if cols := m.GroupColumns("Y"); len(cols) != 1 || cols[0] != 2 {
		t.Errorf("GroupColumns(Y): got %v", cols)
	}
}

func TestGroupMeans(t *testing.T) {
	m := testMatrix(t)

	for _, v := range []struct {
		gene  string
		means []float64
	}{
		{"A", []float64{10, 0}},
		{"B", []float64{1, 9}},
	} {
		row, ok := m.GeneIndex(v.gene)
		if !ok {
			t.Fatalf("gene %s not found", v.gene)
		}
		got := m.GroupMeans(row)
		for i := range v.means {
			if math.Abs(got[i]-v.means[i]) > 1e-12 {
				t.Errorf("GroupMeans(%s): got %v, want %v", v.gene, got, v.means)
			}
		}
	}
}

func TestMeanOverRepeatedColumns(t *testing.T) {
	m := testMatrix(t)

	row, _ := m.GeneIndex("B")
	if got := m.MeanOver(row, []int{2, 2}); math.Abs(got-9) > 1e-12 {
		t.Errorf("MeanOver with repeated columns: got %v, want 9", got)
	}
}

func TestValidation(t *testing.T) {
	for _, v := range []struct {
		name    string
		genes   []string
		samples []string
		values  [][]float64
		labels  []string
	}{
		{"label count", []string{"A"}, []string{"s1", "s2"}, [][]float64{{1, 2}}, []string{"X"}},
		{"row length", []string{"A"}, []string{"s1", "s2"}, [][]float64{{1}}, []string{"X", "Y"}},
		{"row count", []string{"A", "B"}, []string{"s1", "s2"}, [][]float64{{1, 2}}, []string{"X", "Y"}},
		{"empty label", []string{"A"}, []string{"s1", "s2"}, [][]float64{{1, 2}}, []string{"X", ""}},
		{"duplicate gene", []string{"A", "A"}, []string{"s1", "s2"}, [][]float64{{1, 2}, {3, 4}}, []string{"X", "Y"}},
		{"negative value", []string{"A"}, []string{"s1", "s2"}, [][]float64{{1, -2}}, []string{"X", "Y"}},
		{"NaN value", []string{"A"}, []string{"s1", "s2"}, [][]float64{{1, math.NaN()}}, []string{"X", "Y"}},
	} {
		_, err := New(v.genes, v.samples, v.values, v.labels)
		var shape ShapeMismatchError
		if !errors.As(err, &shape) {
			t.Errorf("%s: got %v, want ShapeMismatchError", v.name, err)
		}
	}
}

func TestSingleGroupIsDegenerate(t *testing.T) {
	_, err := New(
		[]string{"A"},
		[]string{"s1", "s2"},
		[][]float64{{1, 2}},
		[]string{"X", "X"},
	)

	var degenerate DegenerateInputError
	if !errors.As(err, &degenerate) {
		t.Fatalf("got %v, want DegenerateInputError", err)
	}
}

func TestExcludeGroup(t *testing.T) {
	m, err := New(
		[]string{"A"},
		[]string{"s1", "s2", "s3"},
		[][]float64{{1, 2, 3}},
		[]string{"X", "Y", "Z"},
	)
	if err != nil {
		t.Fatal(err)
	}

	sub, err := m.ExcludeGroup("Y")
	if err != nil {
		t.Fatal(err)
	}
	if sub.NumSamples() != 2 {
		t.Errorf("NumSamples after exclude: got %d, want 2", sub.NumSamples())
	}
	groups := sub.Groups()
	if len(groups) != 2 || groups[0] != "X" || groups[1] != "Z" {
		t.Errorf("Groups after exclude: got %v, want [X Z]", groups)
	}
	row, _ := sub.GeneIndex("A")
	if got := sub.Row(row); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Row after exclude: got %v, want [1 3]", got)
	}

	// Dropping down to one group is degenerate.
	if _, err := sub.ExcludeGroup("Z"); err == nil {
		t.Error("expected an error when excluding down to a single group")
	}

	if _, err := m.ExcludeGroup("missing"); err == nil {
		t.Error("expected an error for an unknown group")
	}
}

func TestExcludeGroupLeavesOriginalIntact(t *testing.T) {
	m := testMatrix(t)

	if _, err := m.ExcludeGroup("X"); err == nil {
		// X holds 2 of 3 samples; dropping it leaves one group.
		t.Fatal("expected degenerate error")
	}
	if m.NumSamples() != 3 || len(m.Groups()) != 2 {
		t.Error("ExcludeGroup modified the source matrix")
	}
}
