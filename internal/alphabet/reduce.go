package alphabet

import (
	"fmt"
	"sort"
	"strings"
)

// reductionSchemes lists the residue groups of every supported reduced
// amino-acid alphabet. Each group collapses onto its first letter.
var reductionSchemes = map[string][]string{
	"2":    {"LVIMCAGSTPFYW", "EDNQKRH"},
	"3":    {"LVIMCAGSTP", "FYW", "EDNQKRH"},
	"4":    {"LVIMC", "AGSTP", "FYW", "EDNQKRH"},
	"5":    {"LVIMC", "AGSTP", "FYW", "EDNQ", "KRH"},
	"6":    {"LVIM", "C", "AGSTP", "FYW", "EDNQ", "KRH"},
	"6dso": {"AGPST", "C", "DENQ", "FWY", "HKR", "ILMV"},
	"6kgb": {"AGPS", "DENQHKRT", "MIL", "W", "FY", "CV"},
	"6sr":  {"APST", "DENG", "QKR", "MIVL", "WC", "FYH"},
	"8":    {"LVIMC", "AG", "ST", "P", "FYW", "EDNQ", "KR", "H"},
	"10":   {"LVIM", "C", "A", "G", "ST", "P", "FYW", "EDNQ", "KR", "H"},
	"11":   {"KREDQN", "C", "G", "H", "ILV", "M", "F", "Y", "W", "P", "STA"},
	"12":   {"LVIM", "C", "A", "G", "ST", "P", "FY", "W", "EQ", "DN", "KR", "H"},
	"15":   {"LVIM", "C", "A", "G", "S", "T", "P", "FY", "W", "E", "Q", "D", "N", "KR", "H"},
	"18":   {"LM", "VI", "C", "A", "G", "S", "T", "P", "F", "Y", "W", "E", "D", "N", "Q", "K", "R", "H"},
}

// Encodings returns every accepted amino-acid encoding name, "20" included.
func Encodings() []string {
	out := make([]string, 0, len(reductionSchemes)+1)
	for k := range reductionSchemes {
		out = append(out, k)
	}
	out = append(out, "20")
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Reduction is a single-pass byte substitution table. Symbols without an
// entry map onto themselves, so applying it never cascades.
type Reduction struct {
	name  string
	table [256]byte
}

// NewReduction builds the table for an encoding name. Encoding "20" (or the
// empty string) means no reduction and yields a nil table.
func NewReduction(encoding string) (*Reduction, error) {
	if encoding == "" || encoding == "20" {
		return nil, nil
	}
	groups, ok := reductionSchemes[encoding]
	if !ok {
		return nil, fmt.Errorf("unknown amino acid encoding %q (valid: %s)", encoding, strings.Join(Encodings(), ", "))
	}

	r := &Reduction{name: encoding}
	for i := range r.table {
		r.table[i] = byte(i)
	}
	for _, g := range groups {
		for i := 0; i < len(g); i++ {
			r.table[g[i]] = g[0]
		}
	}
	// Two-state ambiguity codes survive only if both members share a group.
	for sym, pair := range map[byte]string{'B': "DN", 'Z': "EQ", 'J': "IL"} {
		if a, b := r.table[pair[0]], r.table[pair[1]]; a == b {
			r.table[sym] = a
		} else {
			r.table[sym] = 'X'
		}
	}
	return r, nil
}

// Name returns the encoding the table was built for.
func (r *Reduction) Name() string { return r.name }

// Apply rewrites seq in place.
func (r *Reduction) Apply(seq []byte) {
	if r == nil {
		return
	}
	for i, c := range seq {
		seq[i] = r.table[c]
	}
}
