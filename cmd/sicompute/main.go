// sicompute computes a per-gene, per-cell-type specificity index table from
// a normalized expression matrix and a sample annotation file. With
// -iterations > 1 it also runs replicate resampling to quantify how stable
// the resulting ranking is.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"gonum.org/v1/gonum/stat"

	"github.com/exprtools/specidx/resample"
	"github.com/exprtools/specidx/si"
)

func main() {
	var (
		matrixFile    string
		annotFile     string
		bottom        float64
		iterations    int
		seed          int64
		workers       int
		strategyName  string
		excludeGroup  string
		outFile       string
		stabilityFile string
	)

	flag.StringVar(&matrixFile, "matrix", "", "CSV with one gene per row and one sample per column. The first column holds the gene identifier.")
	flag.StringVar(&annotFile, "annot", "", "CSV mapping each sample to its group, with header sample,group[,species].")
	flag.Float64Var(&bottom, "bottom", 0, "Floor below which a group mean is clamped before the specificity ratio is taken.")
	flag.IntVar(&iterations, "iterations", 1, "Number of resampling iterations. 1 disables resampling.")
	flag.Int64Var(&seed, "seed", 0, "Seed for the resampling ensemble. Required when -iterations > 1.")
	flag.IntVar(&workers, "workers", 1, "Number of parallel workers for resampling.")
	flag.StringVar(&strategyName, "strategy", "leaveoneout", "Replicate resampling scheme: leaveoneout or bootstrap.")
	flag.StringVar(&excludeGroup, "exclude", "", "Optional group to drop before computing, e.g. to balance group sets across species.")
	flag.StringVar(&outFile, "out", "", "Output CSV for the specificity table. Defaults to stdout.")
	flag.StringVar(&stabilityFile, "stability", "", "Optional output CSV for the per-gene, per-group resampling summary.")
	flag.Parse()

	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})

	if matrixFile == "" || annotFile == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}
	if iterations > 1 && !seedSet {
		log.Fatalln("-seed is required when -iterations > 1, so that the run is reproducible")
	}

	var strategy resample.Strategy
	switch strategyName {
	case "leaveoneout":
		strategy = resample.LeaveOneOut{}
	case "bootstrap":
		strategy = resample.Bootstrap{}
	default:
		log.Fatalf("Unknown -strategy %q (want leaveoneout or bootstrap)\n", strategyName)
	}

	m, err := importMatrix(matrixFile, annotFile)
	if err != nil {
		log.Fatalln(err)
	}
	if excludeGroup != "" {
		m, err = m.ExcludeGroup(excludeGroup)
		if err != nil {
			log.Fatalln(err)
		}
		log.Println("Excluded group", excludeGroup)
	}
	log.Println("Loaded", m.NumGenes(), "genes x", m.NumSamples(), "samples in", len(m.Groups()), "groups")

	if iterations <= 1 {
		tbl, err := si.Compute(m, bottom)
		if err != nil {
			log.Fatalln(err)
		}
		if err := exportTable(outFile, tbl); err != nil {
			log.Fatalln(err)
		}
		return
	}

	// Interrupt stops scheduling new iterations; in-flight iterations finish
	// and the partial aggregation is still written out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := resample.Run(ctx, m, resample.Config{
		Iterations:      iterations,
		Workers:         workers,
		Seed:            seed,
		BottomThreshold: bottom,
		Strategy:        strategy,
	})
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Resampling:", res.Completed, "completed,", res.Failed, "failed,", res.Cancelled, "cancelled")
	for _, f := range res.Failures {
		log.Println(f)
	}

	if err := exportTable(outFile, res.Point); err != nil {
		log.Fatalln(err)
	}
	if stabilityFile != "" {
		if res.MeanScore == nil {
			log.Println("No iterations completed; skipping the stability summary")
		} else if err := exportStability(stabilityFile, res); err != nil {
			log.Fatalln(err)
		}
	}

	if res.ScoreStdDev != nil {
		sds := topGroupStdDevs(res)
		mean, sd := stat.MeanStdDev(sds, nil)
		fmt.Fprintf(os.Stderr, "Score standard deviation at each gene's most specific group: mean %.4f, sd %.4f\n", mean, sd)
		if err := printStdDevHistogram(os.Stderr, sds); err != nil {
			log.Println("Could not render histogram:", err)
		}
	}
}
