package alphabet

import (
	"math/bits"
	"strings"
)

// StateCodes are the symbols of the numeric-coded format in state order.
const StateCodes = "0123456789ABCDEFGHIJKLMNOPQRSTUV"

// MaxStates is the largest number of states a single character may carry.
const MaxStates = len(StateCodes)

// Translator maps each input symbol of one subpartition type to its
// numeric-coded form in a single table lookup.
type Translator struct {
	table [256]string
}

var translators = func() map[CharType]*Translator {
	m := make(map[CharType]*Translator)
	for _, t := range []CharType{Nucleic, Peptidic, Indel, Morphological, GeneContent} {
		m[t] = buildTranslator(t)
	}
	return m
}()

func buildTranslator(t CharType) *Translator {
	tr := &Translator{}
	for i := range tr.table {
		tr.table[i] = string([]byte{byte(i)})
	}
	tr.table[Gap] = string(Missing)

	if !t.IsMolecular() {
		return tr
	}
	full := uint32(1)<<len(Bases) - 1
	if t == Peptidic {
		full = uint32(1)<<len(Residues) - 1
	}
	for c := 0; c < 256; c++ {
		mask, ok := StateMask(t, byte(c))
		if !ok {
			continue
		}
		switch {
		case mask == full:
			tr.table[c] = string(Missing)
		case bits.OnesCount32(mask) == 1:
			tr.table[c] = string(StateCodes[bits.TrailingZeros32(mask)])
		default:
			tr.table[c] = bracket(mask)
		}
	}
	return tr
}

func bracket(mask uint32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		sb.WriteByte(StateCodes[i])
		mask &^= 1 << i
	}
	sb.WriteByte(']')
	return sb.String()
}

// TranslatorFor returns the table for a subpartition type.
func TranslatorFor(t CharType) *Translator {
	if tr, ok := translators[t]; ok {
		return tr
	}
	return translators[Morphological]
}

// Symbol returns the coded form of c.
func (tr *Translator) Symbol(c byte) string {
	return tr.table[c]
}

// AppendTo appends the coded form of every byte of src to dst.
func (tr *Translator) AppendTo(dst []byte, src []byte) []byte {
	for _, c := range src {
		dst = append(dst, tr.table[c]...)
	}
	return dst
}
