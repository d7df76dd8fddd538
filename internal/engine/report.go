package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/partition"
)

// Report is the processing log of one run. It is also written as
// <root>.log.yaml next to the matrices. Informative counts the columns
// written to the TNT block.
type Report struct {
	RunID       string         `yaml:"run_id,omitempty"`
	RootName    string         `yaml:"root_name"`
	Terminals   int            `yaml:"terminals"`
	Characters  int            `yaml:"characters"`
	Informative int            `yaml:"informative"`
	Retained    []FileReport   `yaml:"retained"`
	Excluded    []FileReport   `yaml:"excluded,omitempty"`
	Dropped     []string       `yaml:"dropped_by_percentile,omitempty"`
	Skipped     []string       `yaml:"skipped,omitempty"`
	Pruned      []string       `yaml:"pruned_terminals,omitempty"`
	Regions     []RegionReport `yaml:"regions"`
	Outputs     []string       `yaml:"outputs"`
}

// FileReport describes one loaded input file.
type FileReport struct {
	Path          string               `yaml:"path"`
	Kind          partition.FileKind   `yaml:"kind"`
	Terminals     int                  `yaml:"terminals"`
	Subpartitions []SubpartitionReport `yaml:"subpartitions"`
	Reason        string               `yaml:"reason,omitempty"`
}

// SubpartitionReport is the character count of one subpartition.
type SubpartitionReport struct {
	Type        alphabet.CharType `yaml:"type"`
	Size        int               `yaml:"size"`
	Informative int               `yaml:"informative"`
	States      int               `yaml:"states,omitempty"`
}

// RegionReport is one line of the partition map.
type RegionReport struct {
	Origin string            `yaml:"origin"`
	Type   alphabet.CharType `yaml:"type"`
	Start  int               `yaml:"start"`
	End    int               `yaml:"end"`
}

// Characters returns the total width of the file.
func (f FileReport) Characters() int {
	n := 0
	for _, s := range f.Subpartitions {
		n += s.Size
	}
	return n
}

// InformativeCount returns the informative column count of the file.
func (f FileReport) InformativeCount() int {
	n := 0
	for _, s := range f.Subpartitions {
		n += s.Informative
	}
	return n
}

func describe(p *partition.Partition) FileReport {
	fr := FileReport{Path: p.Origin, Kind: p.Kind, Terminals: len(p.Data)}
	for _, s := range p.Subpartitions {
		fr.Subpartitions = append(fr.Subpartitions, SubpartitionReport{
			Type:        s.Type,
			Size:        s.Size,
			Informative: len(s.Informative),
			States:      s.States,
		})
	}
	return fr
}

func regionReports(regions []partition.Region) []RegionReport {
	out := make([]RegionReport, 0, len(regions))
	start := 1
	for _, r := range regions {
		out = append(out, RegionReport{Origin: r.Origin, Type: r.Type, Start: start, End: start + r.Size - 1})
		start += r.Size
	}
	return out
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
