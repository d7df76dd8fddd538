package names

import (
	"fmt"
	"sort"

	"github.com/phylokit/supermatrix/internal/partition"
)

// Input is one file selected for a run.
type Input struct {
	Path string
	Kind partition.FileKind
}

// Map is the outcome of name resolution over the selected inputs.
type Map struct {
	// Names maps every raw identifier to its terminal name.
	Names map[string]string
	// Inputs lists the selected files: sequence files first, then tables,
	// each group in path order.
	Inputs []Input
	// Dropped lists sequence files excluded by the occupancy percentile.
	Dropped []string
}

// Terminals returns the sorted set of distinct terminal names.
func (m *Map) Terminals() []string {
	seen := make(map[string]struct{}, len(m.Names))
	out := make([]string, 0, len(m.Names))
	for _, n := range m.Names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// MapOptions configures BuildMap.
type MapOptions struct {
	FullNames bool
	// KeepPercent keeps the best-occupied KeepPercent% of sequence files
	// (ranked by terminal count). Zero means 100.
	KeepPercent int
}

// BuildMap reads the identifiers of every file, applies the occupancy
// percentile to the sequence files and resolves every identifier of the
// surviving files.
func BuildMap(seqFiles, tableFiles []string, opts MapOptions) (*Map, error) {
	keep := opts.KeepPercent
	if keep <= 0 || keep > 100 {
		keep = 100
	}

	ids := make(map[string][]string, len(seqFiles)+len(tableFiles))
	for _, path := range seqFiles {
		got, err := partition.ReadIdentifiers(path, partition.AlignedSequence)
		if err != nil {
			return nil, err
		}
		ids[path] = got
	}
	for _, path := range tableFiles {
		got, err := partition.ReadIdentifiers(path, partition.Tabular)
		if err != nil {
			return nil, err
		}
		ids[path] = got
	}

	kept, dropped := selectByOccupancy(seqFiles, ids, keep)

	m := &Map{Names: make(map[string]string), Dropped: dropped}
	for _, path := range kept {
		m.Inputs = append(m.Inputs, Input{Path: path, Kind: partition.AlignedSequence})
	}
	for _, path := range tableFiles {
		m.Inputs = append(m.Inputs, Input{Path: path, Kind: partition.Tabular})
	}
	for _, in := range m.Inputs {
		for _, raw := range ids[in.Path] {
			name := Resolve(raw, opts.FullNames)
			if name == "" {
				return nil, fmt.Errorf("%s: identifier %q resolves to an empty terminal name", in.Path, raw)
			}
			m.Names[raw] = name
		}
	}
	return m, nil
}

// selectByOccupancy ranks files by identifier count and keeps the top
// keep% (at least one). The kept files retain their input order.
func selectByOccupancy(files []string, ids map[string][]string, keep int) (kept, dropped []string) {
	if keep >= 100 || len(files) == 0 {
		return files, nil
	}
	n := len(files) * keep / 100
	if n < 1 {
		n = 1
	}

	ranked := make([]string, len(files))
	copy(ranked, files)
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ids[ranked[i]]) > len(ids[ranked[j]])
	})
	selected := make(map[string]bool, n)
	for _, f := range ranked[:n] {
		selected[f] = true
	}

	for _, f := range files {
		if selected[f] {
			kept = append(kept, f)
		} else {
			dropped = append(dropped, f)
		}
	}
	return kept, dropped
}
