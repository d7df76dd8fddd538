package partition

import (
	"sort"

	"github.com/phylokit/supermatrix/internal/alphabet"
)

// gapInterval is a maximal run of gaps, inclusive on both ends.
type gapInterval struct {
	start, end int
}

func (g gapInterval) contains(o gapInterval) bool {
	return g != o && g.start <= o.start && g.end >= o.end
}

// CodeIndels appends one indel subpartition per sequence subpartition using
// simple indel coding (Simmons & Ochoterena 2000). Leading and trailing gaps
// count as missing data, and intervals seen in a single terminal are
// dropped. A terminal exhibiting a gap that contains other coded gaps is
// scored '?' for the contained ones, and so is a terminal whose leading or
// trailing missing region reaches into a coded gap.
//
// Only aligned-sequence partitions are coded; anything else is left as is.
func (p *Partition) CodeIndels() {
	if p.Kind != AlignedSequence {
		return
	}
	n := len(p.Subpartitions)
	for i := 0; i < n; i++ {
		s := p.Subpartitions[i]
		if !s.Type.IsMolecular() {
			continue
		}
		rows := p.indelRows(p.Offset(i), s.Size)
		size := 0
		for _, row := range rows {
			size = len(row)
			break
		}
		p.appendSubpartition(&Subpartition{Size: size, Type: alphabet.Indel}, rows)
	}
}

// indelRows builds the indel characters of every terminal for the columns
// [off, off+size).
func (p *Partition) indelRows(off, size int) map[string][]byte {
	terms := p.Terminals()
	observed := make(map[string]map[gapInterval]bool, len(terms))
	spans := make(map[string]gapInterval, len(terms))
	tally := make(map[gapInterval]int)
	for _, name := range terms {
		set := make(map[gapInterval]bool)
		gaps, span := innerGaps(p.Data[name][off : off+size])
		for _, g := range gaps {
			set[g] = true
			tally[g]++
		}
		observed[name] = set
		spans[name] = span
	}

	var coded []gapInterval
	for g, n := range tally {
		if n > 1 {
			coded = append(coded, g)
		}
	}
	sort.Slice(coded, func(i, j int) bool {
		if coded[i].start != coded[j].start {
			return coded[i].start < coded[j].start
		}
		return coded[i].end < coded[j].end
	})

	nested := make([][]int, len(coded))
	for i, outer := range coded {
		for j, inner := range coded {
			if outer.contains(inner) {
				nested[i] = append(nested[i], j)
			}
		}
	}

	rows := make(map[string][]byte, len(terms))
	for _, name := range terms {
		row := make([]byte, len(coded))
		span := spans[name]
		for k, g := range coded {
			switch {
			case observed[name][g]:
				row[k] = '1'
			case g.start < span.start || g.end > span.end:
				row[k] = alphabet.Missing
			default:
				row[k] = '0'
			}
		}
		for k, g := range coded {
			if !observed[name][g] {
				continue
			}
			for _, j := range nested[k] {
				row[j] = alphabet.Missing
			}
		}
		rows[name] = row
	}
	return rows
}

// innerGaps returns the maximal gap runs of seq, ignoring leading and
// trailing gaps, and the span between them. The span is empty (end < start)
// for a row made only of gaps.
func innerGaps(seq []byte) ([]gapInterval, gapInterval) {
	lo, hi := 0, len(seq)-1
	for lo <= hi && seq[lo] == alphabet.Gap {
		lo++
	}
	for hi >= lo && seq[hi] == alphabet.Gap {
		hi--
	}

	var out []gapInterval
	for i := lo; i <= hi; i++ {
		if seq[i] != alphabet.Gap {
			continue
		}
		j := i
		for j+1 <= hi && seq[j+1] == alphabet.Gap {
			j++
		}
		out = append(out, gapInterval{start: i, end: j})
		i = j
	}
	return out, gapInterval{start: lo, end: hi}
}
