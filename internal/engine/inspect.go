package engine

import (
	"fmt"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/names"
	"github.com/phylokit/supermatrix/internal/partition"
)

// InspectOptions configures Inspect.
type InspectOptions struct {
	FullNames  bool
	AAEncoding string
	Indels     bool
}

// Inspect loads a single input file, codes its indels and reports its
// subpartitions without aggregating or writing anything.
func Inspect(path string, opts InspectOptions) (*FileReport, error) {
	kind, ok := names.KindOf(path)
	if !ok {
		return nil, fmt.Errorf("%s: unrecognized input extension", path)
	}
	reduction, err := alphabet.NewReduction(opts.AAEncoding)
	if err != nil {
		return nil, err
	}

	var seqFiles, tableFiles []string
	if kind == partition.Tabular {
		tableFiles = []string{path}
	} else {
		seqFiles = []string{path}
	}
	nameMap, err := names.BuildMap(seqFiles, tableFiles, names.MapOptions{FullNames: opts.FullNames})
	if err != nil {
		return nil, err
	}

	p, err := partition.Load(path, kind, partition.LoadOptions{
		Names:     nameMap.Names,
		Reduction: reduction,
		Registry:  partition.NewRegistry(),
	})
	if err != nil {
		return nil, err
	}
	if opts.Indels {
		p.CodeIndels()
	}
	p.AnalyzeInformative()

	fr := describe(p)
	if p.InformativeCount() == 0 {
		fr.Reason = "no informative characters"
	}
	return &fr, nil
}
