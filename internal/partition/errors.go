package partition

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrRegistryFull is returned when no placeholder symbol is left for a new
// polymorphic state combination.
var ErrRegistryFull = errors.New("polymorphism registry is full")

// AlignmentLengthError reports sequences of different lengths in one file.
type AlignmentLengthError struct {
	File     string
	Terminal string
	Want     int
	Got      int
}

func (e *AlignmentLengthError) Error() string {
	return fmt.Sprintf("%s: sequences have different lengths (%s has %d, expected %d), probably they are not aligned",
		e.File, e.Terminal, e.Got, e.Want)
}

// InvalidSymbolError reports a symbol outside the recognized alphabets.
type InvalidSymbolError struct {
	File     string
	Terminal string
	Symbol   byte
	Column   int
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("%s: invalid symbol %q in %s at column %d", e.File, e.Symbol, e.Terminal, e.Column+1)
}

// RowLengthMismatchError reports a tabular row with the wrong column count.
type RowLengthMismatchError struct {
	File string
	Line int
	Want int
	Got  int
}

func (e *RowLengthMismatchError) Error() string {
	return fmt.Sprintf("%s:%d: row has %d columns, header has %d", e.File, e.Line, e.Got, e.Want)
}

// DuplicateNameError reports raw identifiers that resolve to the same
// terminal name within one file.
type DuplicateNameError struct {
	File string
	// Raw maps each duplicated terminal name to every raw identifier
	// resolving to it.
	Raw map[string][]string
}

func (e *DuplicateNameError) Error() string {
	dup := make([]string, 0, len(e.Raw))
	for name := range e.Raw {
		dup = append(dup, name)
	}
	sort.Strings(dup)

	parts := make([]string, 0, len(dup))
	for _, name := range dup {
		parts = append(parts, fmt.Sprintf("%s <- %s", name, strings.Join(e.Raw[name], ", ")))
	}
	return fmt.Sprintf("%s: duplicate terminal names: %s", e.File, strings.Join(parts, "; "))
}

// StateOverflowError reports a tabular column with more states than the
// numeric coding can express.
type StateOverflowError struct {
	File      string
	Character string
	Max       int
}

func (e *StateOverflowError) Error() string {
	return fmt.Sprintf("%s: character %q has more than %d states", e.File, e.Character, e.Max)
}
