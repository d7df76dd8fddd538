package partition

import (
	"math/bits"
	"sort"

	"github.com/phylokit/supermatrix/internal/alphabet"
)

// AnalyzeInformative recomputes the informative column set of every
// subpartition. Running it again on an unchanged partition yields the same
// sets.
func (p *Partition) AnalyzeInformative() {
	rows := make([][]byte, 0, len(p.Data))
	for _, name := range p.Terminals() {
		rows = append(rows, p.Data[name])
	}

	off := 0
	for _, s := range p.Subpartitions {
		var informative []int
		for c := 0; c < s.Size; c++ {
			if columnInformative(s.Type, rows, off+c) {
				informative = append(informative, c)
			}
		}
		s.Informative = informative
		off += s.Size
	}
}

func columnInformative(t alphabet.CharType, rows [][]byte, col int) bool {
	var counts [256]int
	distinct := 0
	for _, row := range rows {
		c := row[col]
		if c == alphabet.Gap || c == alphabet.Missing || IsPlaceholder(c) {
			continue
		}
		if t.IsMolecular() {
			if _, ok := alphabet.StateMask(t, c); !ok {
				continue
			}
		}
		if counts[c] == 0 {
			distinct++
		}
		counts[c]++
	}
	if distinct < 2 {
		return false
	}

	tally := make(map[byte]int, distinct)
	for c, n := range counts {
		if n > 0 {
			tally[byte(c)] = n
		}
	}
	minSteps, maxSteps := StepBounds(t, tally)
	return maxSteps > minSteps
}

// stateCount is one observed symbol with its possible-state set.
type stateCount struct {
	sym  byte
	mask uint64
	n    int
}

// StepBounds returns the minimum and maximum number of state changes a
// column with the given symbol frequencies can require. Ambiguity codes of
// molecular types count as sets of possible states; every symbol of other
// types is a state of its own.
func StepBounds(t alphabet.CharType, counts map[byte]int) (minSteps, maxSteps int) {
	syms := make([]byte, 0, len(counts))
	for sym, n := range counts {
		if n > 0 {
			syms = append(syms, sym)
		}
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })

	var standard, ambiguous []stateCount
	bit := 0
	for _, sym := range syms {
		var mask uint64
		if t.IsMolecular() {
			m, ok := alphabet.StateMask(t, sym)
			if !ok {
				continue
			}
			mask = uint64(m)
		} else {
			if bit == 64 {
				continue
			}
			mask = 1 << bit
			bit++
		}

		sc := stateCount{sym: sym, mask: mask, n: counts[sym]}
		if bits.OnesCount64(mask) > 1 {
			ambiguous = append(ambiguous, sc)
			continue
		}
		merged := false
		for k := range standard {
			if standard[k].mask == mask {
				standard[k].n += sc.n
				merged = true
				break
			}
		}
		if !merged {
			standard = append(standard, sc)
		}
	}

	return minStepCount(standard, ambiguous), maxStepCount(standard, ambiguous)
}

// minStepCount counts the fewest distinct states that explain every
// observation, minus one.
func minStepCount(standard, ambiguous []stateCount) int {
	var resolved uint64
	for _, s := range standard {
		resolved |= s.mask
	}

	var open []uint64
	for _, a := range ambiguous {
		if a.mask&resolved == 0 {
			open = append(open, a.mask)
		}
	}

	for merged := true; merged; {
		merged = false
	search:
		for i := 0; i < len(open); i++ {
			for j := i + 1; j < len(open); j++ {
				shared := open[i] & open[j]
				if shared == 0 {
					continue
				}
				resolved |= lowestBit(shared)
				rest := open[:0:0]
				for k, m := range open {
					if k != i && k != j && m&resolved == 0 {
						rest = append(rest, m)
					}
				}
				open = rest
				merged = true
				break search
			}
		}
	}
	for _, m := range open {
		resolved |= lowestBit(m)
	}

	n := bits.OnesCount64(resolved)
	if n == 0 {
		return 0
	}
	return n - 1
}

// maxStepCount folds every ambiguity code into the most frequent compatible
// standard state and counts every observation outside the largest bucket.
func maxStepCount(standard, ambiguous []stateCount) int {
	type bucket struct {
		stateCount
		standard bool
	}
	buckets := make([]bucket, 0, len(standard)+len(ambiguous))
	for _, s := range standard {
		buckets = append(buckets, bucket{stateCount: s, standard: true})
	}
	byCount := func() {
		sort.SliceStable(buckets, func(i, j int) bool {
			if buckets[i].n != buckets[j].n {
				return buckets[i].n > buckets[j].n
			}
			return buckets[i].sym < buckets[j].sym
		})
	}
	byCount()

	for _, a := range ambiguous {
		folded := false
		for k := range buckets {
			if buckets[k].standard && buckets[k].mask&a.mask != 0 {
				buckets[k].n += a.n
				folded = true
				break
			}
		}
		if !folded {
			buckets = append(buckets, bucket{stateCount: a})
		}
		byCount()
	}

	total, largest := 0, 0
	for _, b := range buckets {
		total += b.n
		if b.n > largest {
			largest = b.n
		}
	}
	return total - largest
}

func lowestBit(m uint64) uint64 {
	return m & -m
}
