package partition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/phylokit/supermatrix/internal/alphabet"
)

// Reserved tokens of tabular input.
const (
	missingToken = "?"
	gapToken     = "-"
	polySep      = "|"
)

type tableRow struct {
	line   int
	id     string
	tokens []string
}

func parseTable(path string, r io.Reader, opts LoadOptions) (*Partition, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("%s: tabular input needs a polymorphism registry", path)
	}

	var header []string
	var rows []tableRow
	err := eachLine(r, func(n int, line []byte) error {
		fields := strings.Split(string(line), "\t")
		if header == nil {
			header = fields
			return nil
		}
		if len(fields) != len(header) {
			return &RowLengthMismatchError{File: path, Line: n, Want: len(header), Got: len(fields)}
		}
		rows = append(rows, tableRow{line: n, id: strings.TrimSpace(fields[0]), tokens: fields[1:]})
		return nil
	})
	if err != nil {
		var rowErr *RowLengthMismatchError
		if errors.As(err, &rowErr) {
			return nil, rowErr
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if header == nil {
		return nil, fmt.Errorf("%s: empty table", path)
	}

	raw := make([]string, len(rows))
	for i, row := range rows {
		raw[i] = row.id
	}
	resolved, err := resolveNames(path, raw, opts.Names)
	if err != nil {
		return nil, err
	}

	charNames := make([]string, len(header)-1)
	for i, h := range header[1:] {
		charNames[i] = strings.TrimSpace(h)
	}

	p := &Partition{
		Origin: path,
		Kind:   Tabular,
		Data:   make(map[string][]byte, len(rows)),
	}
	coders := make([]*columnCoder, len(charNames))
	for j := range coders {
		coders[j] = &columnCoder{codes: make(map[string]int)}
	}

	for i, row := range rows {
		out := make([]byte, len(charNames))
		for j, tok := range row.tokens {
			sym, err := coders[j].code(strings.TrimSpace(tok), opts.Registry)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, row.line, err)
			}
			if sym == 0 {
				return nil, &StateOverflowError{File: path, Character: charNames[j], Max: alphabet.MaxStates}
			}
			out[j] = sym
		}
		p.Data[resolved[i]] = out
	}

	states := 0
	for _, c := range coders {
		if len(c.codes) > states {
			states = len(c.codes)
		}
	}
	p.Subpartitions = []*Subpartition{{
		Size:      len(charNames),
		Type:      alphabet.Morphological,
		States:    states,
		CharNames: charNames,
	}}
	return p, nil
}

// columnCoder assigns integer state codes to the tokens of one column in
// order of first appearance.
type columnCoder struct {
	codes map[string]int
}

// code returns the symbol for one cell. A zero symbol with a nil error means
// the column ran out of state codes.
func (c *columnCoder) code(tok string, reg *Registry) (byte, error) {
	switch tok {
	case "", missingToken:
		return alphabet.Missing, nil
	case gapToken:
		return alphabet.Gap, nil
	}
	if !strings.Contains(tok, polySep) {
		idx, ok := c.assign(tok)
		if !ok {
			return 0, nil
		}
		return alphabet.StateCodes[idx], nil
	}

	seen := make(map[int]bool)
	var idxs []int
	for _, sub := range strings.Split(tok, polySep) {
		sub = strings.TrimSpace(sub)
		if sub == "" || sub == missingToken || sub == gapToken {
			continue
		}
		idx, ok := c.assign(sub)
		if !ok {
			return 0, nil
		}
		if !seen[idx] {
			seen[idx] = true
			idxs = append(idxs, idx)
		}
	}
	switch len(idxs) {
	case 0:
		return alphabet.Missing, nil
	case 1:
		return alphabet.StateCodes[idxs[0]], nil
	}

	sort.Ints(idxs)
	var sb bytes.Buffer
	sb.WriteByte('[')
	for _, idx := range idxs {
		sb.WriteByte(alphabet.StateCodes[idx])
	}
	sb.WriteByte(']')
	return reg.Register(sb.String())
}

func (c *columnCoder) assign(tok string) (int, bool) {
	if idx, ok := c.codes[tok]; ok {
		return idx, true
	}
	if len(c.codes) >= alphabet.MaxStates {
		return 0, false
	}
	idx := len(c.codes)
	c.codes[tok] = idx
	return idx, true
}
