package partition

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/phylokit/supermatrix/internal/alphabet"
)

// LoadOptions carries the run-scoped collaborators of the loader.
type LoadOptions struct {
	// Names maps raw identifiers to terminal names.
	Names map[string]string
	// Reduction is applied to peptidic files. Nil means no reduction.
	Reduction *alphabet.Reduction
	// Registry receives polymorphic tabular states. Required for tabular files.
	Registry *Registry
}

// Load parses one input file into a Partition.
func Load(path string, kind FileKind, opts LoadOptions) (*Partition, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from directory discovery
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch kind {
	case AlignedSequence:
		return parseSequences(path, f, opts)
	case Tabular:
		return parseTable(path, f, opts)
	default:
		return nil, fmt.Errorf("%s: unknown file kind %q", path, kind)
	}
}

// ReadIdentifiers returns the raw record identifiers of a file, in file
// order: FASTA header text, or the first column of every table row.
func ReadIdentifiers(path string, kind FileKind) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from directory discovery
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var ids []string
	header := true
	err = eachLine(f, func(_ int, line []byte) error {
		switch kind {
		case AlignedSequence:
			if line[0] == '>' {
				ids = append(ids, string(bytes.TrimSpace(line[1:])))
			}
		case Tabular:
			if header {
				header = false
				return nil
			}
			fields := bytes.SplitN(line, []byte{'\t'}, 2)
			ids = append(ids, string(bytes.TrimSpace(fields[0])))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ids, nil
}

// eachLine calls fn for every non-blank line with its 1-based line number.
// Trailing carriage returns are stripped.
func eachLine(r io.Reader, fn func(n int, line []byte) error) error {
	br := bufio.NewReader(r)
	n := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			n++
			line = bytes.TrimRight(line, "\r\n")
			if len(bytes.TrimSpace(line)) > 0 {
				if ferr := fn(n, line); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// resolveNames maps every raw identifier and fails when two of them end up
// with the same terminal name.
func resolveNames(path string, raw []string, names map[string]string) ([]string, error) {
	out := make([]string, len(raw))
	byName := make(map[string][]string, len(raw))
	for i, id := range raw {
		name, ok := names[id]
		if !ok {
			return nil, fmt.Errorf("%s: identifier %q has no terminal name", path, id)
		}
		out[i] = name
		byName[name] = append(byName[name], id)
	}

	dup := make(map[string][]string)
	for name, ids := range byName {
		if len(ids) > 1 {
			sort.Strings(ids)
			dup[name] = ids
		}
	}
	if len(dup) > 0 {
		return nil, &DuplicateNameError{File: path, Raw: dup}
	}
	return out, nil
}
