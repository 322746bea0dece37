// sicompare compares expression specificity rankings across species. It
// takes one specificity table per species (as written by sicompute), picks
// the reference species' topN genes for one group, and reports each gene's
// rank within every species' own table for that same group. Orthologs are
// matched by shared gene identifiers.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/exprtools/specidx/ortho"
	"github.com/exprtools/specidx/si"
)

// flagSlice collects a repeatable flag's values.
type flagSlice []string

func (f *flagSlice) String() string { return strings.Join(*f, ",") }

func (f *flagSlice) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func main() {
	var (
		tableFlags flagSlice
		reference  string
		group      string
		topN       int
		strict     bool
		fisher     bool
		outFile    string
	)

	flag.Var(&tableFlags, "table", "species=path to that species' specificity table CSV. Pass once per species, e.g. -table human=human.csv -table mouse=mouse.csv")
	flag.StringVar(&reference, "reference", "", "Species whose topN genes anchor the comparison. Must match one -table species.")
	flag.StringVar(&group, "group", "", "Cell-type group label to compare, shared across species.")
	flag.IntVar(&topN, "top", 20, "Number of top reference genes to compare.")
	flag.BoolVar(&strict, "strict", false, "Abort if a reference top gene is missing from any species' table, instead of skipping and counting it.")
	flag.BoolVar(&fisher, "fisher", false, "Also report, per species, Fisher's exact test on top-N overlap with the reference.")
	flag.StringVar(&outFile, "out", "", "Output CSV for the rank comparison. Defaults to stdout.")
	flag.Parse()

	if len(tableFlags) < 1 || reference == "" || group == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	tables := make(map[string]*si.Table, len(tableFlags))
	var species []string
	for _, arg := range tableFlags {
		name, path, ok := splitTableArg(arg)
		if !ok {
			log.Fatalf("Malformed -table value %q, want species=path\n", arg)
		}
		tbl, err := importTable(path)
		if err != nil {
			log.Fatalln(err)
		}
		if _, dup := tables[name]; dup {
			log.Fatalf("Species %q given more than once\n", name)
		}
		tables[name] = tbl
		species = append(species, name)
		log.Println("Loaded", len(tbl.Genes), "genes x", len(tbl.Groups), "groups for", name)
	}
	if _, ok := tables[reference]; !ok {
		log.Fatalf("Reference species %q has no -table entry\n", reference)
	}

	rc, err := ortho.Compare(reference, species, tables, group, topN, strict)
	if err != nil {
		log.Fatalln(err)
	}

	if err := exportComparison(outFile, rc); err != nil {
		log.Fatalln(err)
	}

	for _, sp := range rc.Species {
		if n := rc.Missing[sp]; n > 0 {
			log.Println(n, "of", len(rc.Genes), "reference genes had no ortholog entry for", sp)
		}
	}

	medians, err := rc.MedianRanks()
	if err != nil {
		log.Fatalln(err)
	}
	names := make([]string, 0, len(medians))
	for sp := range medians {
		names = append(names, sp)
	}
	sort.Strings(names)
	for _, sp := range names {
		fmt.Fprintf(os.Stderr, "Median rank of %s top-%d %q genes in %s: %.1f\n", reference, len(rc.Genes), group, sp, medians[sp])
	}

	if fisher {
		for _, sp := range rc.Species {
			if sp == reference {
				continue
			}
			res, err := ortho.OverlapTest(tables[reference], tables[sp], group, topN)
			if err != nil {
				log.Fatalln(err)
			}
			fmt.Fprintf(os.Stderr, "Top-%d overlap %s vs %s (%q): %d shared of %d-gene universe, two-sided P = %.3g\n",
				topN, reference, sp, group, res.InBoth, res.Universe, res.P)
		}
	}
}

func splitTableArg(arg string) (species, path string, ok bool) {
	i := strings.Index(arg, "=")
	if i <= 0 || i == len(arg)-1 {
		return "", "", false
	}

	return arg[:i], arg[i+1:], true
}
