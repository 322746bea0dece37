package resample

import (
	"math/rand"
)

// Strategy decides, for one iteration, which replicate columns contribute to
// one group's mean. Implementations must depend only on the supplied rng so
// that a run is reproducible from its seed.
type Strategy interface {
	Name() string
	Sample(rng *rand.Rand, replicates []int) []int
}

// LeaveOneOut holds out one randomly chosen replicate per group per
// iteration. A group with a single replicate keeps it.
type LeaveOneOut struct{}

func (LeaveOneOut) Name() string { return "leaveoneout" }

func (LeaveOneOut) Sample(rng *rand.Rand, replicates []int) []int {
	if len(replicates) <= 1 {
		return replicates
	}

	drop := rng.Intn(len(replicates))
	out := make([]int, 0, len(replicates)-1)
	for i, c := range replicates {
		if i != drop {
			out = append(out, c)
		}
	}

	return out
}

// Bootstrap draws len(replicates) replicates with replacement.
type Bootstrap struct{}

func (Bootstrap) Name() string { return "bootstrap" }

func (Bootstrap) Sample(rng *rand.Rand, replicates []int) []int {
	out := make([]int, len(replicates))
	for i := range out {
		out[i] = replicates[rng.Intn(len(replicates))]
	}

	return out
}
