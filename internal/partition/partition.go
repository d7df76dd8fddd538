// Package partition loads per-locus input files into Partitions, derives
// indel characters from aligned sequences and marks the columns that carry
// phylogenetic signal.
package partition

import (
	"sort"

	"github.com/phylokit/supermatrix/internal/alphabet"
)

// FileKind identifies the format of an input file.
type FileKind string

// Input file kinds.
const (
	AlignedSequence FileKind = "aligned-sequence"
	Tabular         FileKind = "tabular"
)

// Subpartition describes a contiguous run of columns of one character type.
type Subpartition struct {
	Size int
	Type alphabet.CharType
	// States is the largest number of coded states in any column. Only set
	// for tabular data.
	States int
	// Informative holds the informative column indexes, relative to the
	// start of the subpartition, in ascending order.
	Informative []int
	// CharNames holds the column headers of tabular data.
	CharNames []string
}

// Partition is one input file's contribution to the matrix.
type Partition struct {
	Origin string
	Kind   FileKind
	// Data maps a terminal name to its characters: all subpartitions
	// concatenated, column aligned across terminals.
	Data          map[string][]byte
	Subpartitions []*Subpartition
}

// Terminals returns the terminal names present in the partition, sorted.
func (p *Partition) Terminals() []string {
	out := make([]string, 0, len(p.Data))
	for name := range p.Data {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Width returns the sum of all subpartition sizes.
func (p *Partition) Width() int {
	w := 0
	for _, s := range p.Subpartitions {
		w += s.Size
	}
	return w
}

// Offset returns the first column of subpartition i.
func (p *Partition) Offset(i int) int {
	off := 0
	for _, s := range p.Subpartitions[:i] {
		off += s.Size
	}
	return off
}

// InformativeCount returns the number of informative columns across all
// subpartitions.
func (p *Partition) InformativeCount() int {
	n := 0
	for _, s := range p.Subpartitions {
		n += len(s.Informative)
	}
	return n
}

// PruneDerived removes indel subpartitions that carry no informative
// column, together with their columns in every terminal's data.
func (p *Partition) PruneDerived() {
	for i := len(p.Subpartitions) - 1; i >= 0; i-- {
		s := p.Subpartitions[i]
		if s.Type != alphabet.Indel || len(s.Informative) > 0 {
			continue
		}
		off := p.Offset(i)
		for name, row := range p.Data {
			p.Data[name] = append(row[:off:off], row[off+s.Size:]...)
		}
		p.Subpartitions = append(p.Subpartitions[:i], p.Subpartitions[i+1:]...)
	}
}

func (p *Partition) appendSubpartition(s *Subpartition, rows map[string][]byte) {
	for name, row := range rows {
		p.Data[name] = append(p.Data[name], row...)
	}
	p.Subpartitions = append(p.Subpartitions, s)
}
