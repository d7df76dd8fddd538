// Package alphabet holds the static symbol tables used across the pipeline:
// nucleotide and amino-acid ambiguity sets, molecule classification,
// amino-acid alphabet reduction schemes and the numeric state codes used by
// the TNT block.
package alphabet

import "math/bits"

// CharType identifies the kind of characters held by a subpartition.
type CharType string

// Subpartition types.
const (
	Nucleic       CharType = "nucleic"
	Peptidic      CharType = "peptidic"
	Indel         CharType = "indel"
	Morphological CharType = "morphological"
	GeneContent   CharType = "gene_content"
)

// IsMolecular reports whether t holds nucleotide or amino-acid symbols.
func (t CharType) IsMolecular() bool {
	return t == Nucleic || t == Peptidic
}

// Reserved symbols shared by every type.
const (
	Gap     byte = '-'
	Missing byte = '?'
)

// Bases and residues in state order. The position of a symbol in these
// strings is its bit in a state mask and its numeric TNT code.
const (
	Bases    = "ACGT"
	Residues = "ACDEFGHIKLMNPQRSTVWY"
)

var nucleotideMasks, residueMasks = buildMasks()

func buildMasks() (nucleotideMasks, residueMasks [256]uint32) {
	for i := 0; i < len(Bases); i++ {
		nucleotideMasks[Bases[i]] = 1 << i
	}
	nucleotideMasks['U'] = nucleotideMasks['T']
	for sym, set := range map[byte]string{
		'R': "AG", 'Y': "CT", 'S': "CG", 'W': "AT", 'K': "GT", 'M': "AC",
		'B': "CGT", 'D': "AGT", 'H': "ACT", 'V': "ACG", 'N': "ACGT",
	} {
		nucleotideMasks[sym] = maskOf(set, Bases)
	}

	for i := 0; i < len(Residues); i++ {
		residueMasks[Residues[i]] = 1 << i
	}
	for sym, set := range map[byte]string{
		'B': "DN", 'Z': "EQ", 'J': "IL", 'X': Residues,
	} {
		residueMasks[sym] = maskOf(set, Residues)
	}
	return nucleotideMasks, residueMasks
}

func maskOf(set, order string) uint32 {
	var m uint32
	for i := 0; i < len(set); i++ {
		for j := 0; j < len(order); j++ {
			if order[j] == set[i] {
				m |= 1 << j
			}
		}
	}
	return m
}

// StateMask returns the set of standard states a molecular symbol may stand
// for, one bit per state. ok is false for gaps, missing data and symbols
// outside the alphabet of t.
func StateMask(t CharType, sym byte) (mask uint32, ok bool) {
	switch t {
	case Nucleic:
		mask = nucleotideMasks[sym]
	case Peptidic:
		mask = residueMasks[sym]
	}
	return mask, mask != 0
}

// IsAmbiguous reports whether sym expands to more than one standard state.
func IsAmbiguous(t CharType, sym byte) bool {
	m, ok := StateMask(t, sym)
	return ok && bits.OnesCount32(m) > 1
}

// Classify scans an upper-cased sequence and reports its molecule type.
// A symbol that only occurs in the amino-acid alphabet makes the sequence
// peptidic. The first byte outside the recognized alphabets is returned with
// ok=false.
func Classify(seq []byte) (t CharType, bad byte, ok bool) {
	t = Nucleic
	for _, c := range seq {
		if c == Gap || c == Missing {
			continue
		}
		_, isNuc := StateMask(Nucleic, c)
		_, isPep := StateMask(Peptidic, c)
		switch {
		case isNuc:
		case isPep:
			t = Peptidic
		default:
			return t, c, false
		}
	}
	return t, 0, true
}
