package matrix

import (
	"fmt"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/partition"
)

var nexusModels = map[alphabet.CharType]string{
	alphabet.Nucleic:       "GTR+I+G",
	alphabet.Peptidic:      "Blosum62",
	alphabet.Indel:         "GTR2",
	alphabet.Morphological: "MK",
	alphabet.GeneContent:   "GTR2",
}

// raxmlModel picks the RAxML-NG model of the region with 1-based index i.
// Multistate regions are binary with two states and MULTI<n>_GTR above.
func raxmlModel(i int, r partition.Region) (string, error) {
	switch r.Type {
	case alphabet.Nucleic:
		return "GTR+I+G", nil
	case alphabet.Peptidic:
		return "Blosum62", nil
	case alphabet.Indel:
		return "BIN", nil
	case alphabet.Morphological, alphabet.GeneContent:
		switch {
		case r.States == 2:
			return "BIN", nil
		case r.States > 2:
			return fmt.Sprintf("MULTI%d_GTR", r.States), nil
		default:
			return "", &UninformativePartitionError{Index: i, Type: r.Type}
		}
	default:
		return "", fmt.Errorf("p%d: no model for %s data", i, r.Type)
	}
}
