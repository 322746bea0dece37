// Package resample assesses the stability of specificity rankings by
// recomputing the specificity table many times over randomized perturbations
// of the replicate-to-group composition. Iterations are independent and run
// on a bounded worker pool; the aggregate is reproducible from a single seed
// regardless of worker count.
package resample

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/runningvariance"

	"github.com/exprtools/specidx/expr"
	"github.com/exprtools/specidx/si"
)

// Config holds the explicit parameters of a resampling run. There is no
// hidden global state: two runs with equal Configs and equal matrices
// produce identical Results.
type Config struct {
	// Iterations is the number of resampling iterations. 1 (the default)
	// means no resampling: only the full-data point estimate is computed.
	Iterations int

	// Workers bounds the worker pool. 0 or 1 runs sequentially.
	Workers int

	// Seed seeds the whole ensemble. Iteration k's random draws depend only
	// on Seed and k, never on scheduling order.
	Seed int64

	// BottomThreshold is passed through to the specificity calculation.
	BottomThreshold float64

	// Strategy picks the replicate perturbation scheme. Defaults to
	// LeaveOneOut.
	Strategy Strategy

	// MaxFailureRate aborts the run with an error if the fraction of failed
	// iterations exceeds it. 0 means any rate below 100% is tolerated.
	MaxFailureRate float64
}

// IterationFailure records a single resampling iteration that produced a
// numerically invalid result. Failed iterations are excluded from
// aggregation and counted; they do not abort the run.
type IterationFailure struct {
	Iteration int
	Err       error
}

func (f IterationFailure) Error() string {
	return fmt.Sprintf("resample: iteration %d failed: %v", f.Iteration, f.Err)
}

func (f IterationFailure) Unwrap() error { return f.Err }

// Result carries the full-data point estimate alongside the
// resampling-derived stability summary. Neither replaces the other: Point is
// what gets reported, the Mean/StdDev tables say how much to trust it.
type Result struct {
	// Point is the specificity table computed on the unperturbed data.
	Point *si.Table

	// MeanScore, ScoreStdDev, and MeanRank summarize the ensemble per
	// (gene, group), aligned with Point's genes and groups. They are nil
	// when no iteration completed.
	MeanScore   *si.Table
	ScoreStdDev *si.Table
	MeanRank    [][]float64

	Completed int
	Failed    int
	Cancelled int
	Failures  []IterationFailure
}

type iterOut struct {
	k      int
	scores [][]float64 // gene x group
	ranks  [][]int     // gene x group
	err    error
}

// Run computes the point-estimate specificity table and, when
// cfg.Iterations > 1, the resampling ensemble. Cancelling ctx stops
// scheduling new iterations; in-flight iterations complete and the partial
// aggregation is returned with its completed/cancelled counts.
func Run(ctx context.Context, m *expr.Matrix, cfg Config) (*Result, error) {
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("resample: iterations must be >= 1, got %d", cfg.Iterations)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	strat := cfg.Strategy
	if strat == nil {
		strat = LeaveOneOut{}
	}

	point, err := si.Compute(m, cfg.BottomThreshold)
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := &Result{Point: point}
	if cfg.Iterations == 1 {
		return out, nil
	}

	genes := m.Genes()
	groups := m.Groups()

	iters := make(chan int)
	results := make(chan iterOut, workers)

	go func() {
		defer close(iters)
		for k := 0; k < cfg.Iterations; k++ {
			select {
			case iters <- k:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range iters {
				results <- runIteration(m, strat, cfg, k)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Fold contributions in iteration order. The feeder hands out 0..n-1 in
	// order and every scheduled iteration reports exactly once, so a small
	// reorder buffer makes the reduction independent of completion order and
	// therefore bitwise reproducible across worker counts.
	scoreStats := make([][]*runningvariance.RunningStat, len(genes))
	rankSums := make([][]float64, len(genes))
	for i := range genes {
		scoreStats[i] = make([]*runningvariance.RunningStat, len(groups))
		rankSums[i] = make([]float64, len(groups))
		for j := range groups {
			scoreStats[i][j] = runningvariance.NewRunningStat()
		}
	}

	pending := make(map[int]iterOut)
	next := 0
	for res := range results {
		pending[res.k] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if r.err != nil {
				out.Failed++
				out.Failures = append(out.Failures, IterationFailure{Iteration: r.k, Err: r.err})
				continue
			}
			out.Completed++
			for i := range genes {
				for j := range groups {
					scoreStats[i][j].Push(r.scores[i][j])
					rankSums[i][j] += float64(r.ranks[i][j])
				}
			}
		}
	}
	out.Cancelled = cfg.Iterations - out.Completed - out.Failed

	if out.Completed > 0 {
		meanScores := make([][]float64, len(genes))
		sdScores := make([][]float64, len(genes))
		out.MeanRank = make([][]float64, len(genes))
		for i := range genes {
			meanScores[i] = make([]float64, len(groups))
			sdScores[i] = make([]float64, len(groups))
			out.MeanRank[i] = make([]float64, len(groups))
			for j := range groups {
				meanScores[i][j] = scoreStats[i][j].Mean()
				sdScores[i][j] = scoreStats[i][j].StandardDeviation()
				out.MeanRank[i][j] = rankSums[i][j] / float64(out.Completed)
			}
		}
		out.MeanScore = si.NewTable(genes, groups, meanScores)
		out.ScoreStdDev = si.NewTable(genes, groups, sdScores)
	}

	scheduled := out.Completed + out.Failed
	if scheduled > 0 && out.Completed == 0 {
		return out, fmt.Errorf("resample: all %d scheduled iterations failed (first: %v)", scheduled, out.Failures[0])
	}
	if cfg.MaxFailureRate > 0 && scheduled > 0 {
		if rate := float64(out.Failed) / float64(scheduled); rate > cfg.MaxFailureRate {
			return out, fmt.Errorf("resample: failure rate %.3f exceeds maximum %.3f (%d of %d iterations failed)", rate, cfg.MaxFailureRate, out.Failed, scheduled)
		}
	}

	return out, nil
}

// iterationSeed derives iteration k's rng seed from the run seed alone, so
// that draws are index-addressable: the k-th iteration sees the same stream
// no matter which worker runs it or when.
func iterationSeed(seed int64, k int) int64 {
	x := uint64(seed) + uint64(k+1)*0x9e3779b97f4a7c15
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33

	return int64(x)
}

func runIteration(m *expr.Matrix, strat Strategy, cfg Config, k int) iterOut {
	rng := rand.New(rand.NewSource(iterationSeed(cfg.Seed, k)))

	genes := m.Genes()
	groups := m.Groups()

	// Draw each group's replicate composition once, in the fixed group
	// order, then score every gene against those draws.
	picked := make([][]int, len(groups))
	for gi, g := range groups {
		cols := strat.Sample(rng, m.GroupColumns(g))
		if len(cols) == 0 {
			return iterOut{k: k, err: fmt.Errorf("strategy %s selected no replicates for group %s", strat.Name(), g)}
		}
		picked[gi] = cols
	}

	scores := make([][]float64, len(genes))
	means := make([]float64, len(groups))
	for i := range genes {
		for gi := range groups {
			means[gi] = m.MeanOver(i, picked[gi])
		}
		row := si.ScoreMeans(means, cfg.BottomThreshold)
		for gi, s := range row {
			if math.IsNaN(s) || math.IsInf(s, 0) {
				return iterOut{k: k, err: fmt.Errorf("non-finite score for gene %s, group %s", genes[i], groups[gi])}
			}
		}
		scores[i] = row
	}

	tbl := si.NewTable(genes, groups, scores)
	ranks := make([][]int, len(genes))
	for i := range genes {
		ranks[i] = make([]int, len(groups))
	}
	for gi, g := range groups {
		colRanks, err := si.Ranks(tbl, g)
		if err != nil {
			return iterOut{k: k, err: err}
		}
		for i, r := range colRanks {
			ranks[i][gi] = r
		}
	}

	return iterOut{k: k, scores: scores, ranks: ranks}
}
