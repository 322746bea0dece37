package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/exprtools/specidx/resample"
	"github.com/exprtools/specidx/si"
)

func openOut(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	return f, f.Close, nil
}

// exportTable writes a specificity table as CSV: gene_id, then one column
// per group. Scores are written with full precision so that downstream rank
// extraction sees exactly the computed values.
func exportTable(path string, t *si.Table) error {
	out, closer, err := openOut(path)
	if err != nil {
		return err
	}
	defer closer()

	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(append([]string{"gene_id"}, t.Groups...)); err != nil {
		return err
	}

	rec := make([]string, 1+len(t.Groups))
	for i, gene := range t.Genes {
		rec[0] = gene
		for j := range t.Groups {
			rec[1+j] = strconv.FormatFloat(t.Scores[i][j], 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// exportStability writes the resampling summary in long format: one row per
// (gene, group) with the mean score, score standard deviation, and mean rank
// across completed iterations. A Result with no completed iterations (for
// example, a run cancelled before any iteration finished) has nothing to
// summarize and is an error, not a panic.
func exportStability(path string, res *resample.Result) error {
	if res.MeanScore == nil || res.ScoreStdDev == nil || res.MeanRank == nil {
		return fmt.Errorf("no completed resampling iterations to summarize")
	}

	out, closer, err := openOut(path)
	if err != nil {
		return err
	}
	defer closer()

	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"gene_id", "group", "mean_score", "score_sd", "mean_rank"}); err != nil {
		return err
	}

	for i, gene := range res.Point.Genes {
		for j, group := range res.Point.Groups {
			rec := []string{
				gene,
				group,
				strconv.FormatFloat(res.MeanScore.Scores[i][j], 'g', -1, 64),
				strconv.FormatFloat(res.ScoreStdDev.Scores[i][j], 'g', -1, 64),
				strconv.FormatFloat(res.MeanRank[i][j], 'g', -1, 64),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// topGroupStdDevs collects, for each gene, the resampled score standard
// deviation at the group where the point estimate is highest. High values
// flag genes whose apparent specificity hinges on particular replicates.
func topGroupStdDevs(res *resample.Result) []float64 {
	out := make([]float64, 0, len(res.Point.Genes))

	for i := range res.Point.Genes {
		best := 0
		for j := range res.Point.Groups {
			if res.Point.Scores[i][j] > res.Point.Scores[i][best] {
				best = j
			}
		}
		out = append(out, res.ScoreStdDev.Scores[i][best])
	}

	return out
}

func printStdDevHistogram(w io.Writer, sds []float64) error {
	// The number of buckets is arbitrary.
	hist := histogram.Hist(10, sds)

	return histogram.Fprint(w, hist, histogram.Linear(40))
}
