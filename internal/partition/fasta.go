package partition

import (
	"bytes"
	"fmt"
	"io"

	"github.com/phylokit/supermatrix/internal/alphabet"
)

type seqRecord struct {
	id  string
	seq []byte
}

func parseSequences(path string, r io.Reader, opts LoadOptions) (*Partition, error) {
	var records []*seqRecord
	var cur *seqRecord
	err := eachLine(r, func(_ int, line []byte) error {
		if line[0] == '>' {
			cur = &seqRecord{id: string(bytes.TrimSpace(line[1:]))}
			records = append(records, cur)
			return nil
		}
		if cur == nil {
			return fmt.Errorf("sequence data before the first header")
		}
		for _, c := range line {
			if c == ' ' || c == '\t' {
				continue
			}
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			cur.seq = append(cur.seq, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Records without sequence data do not take part in the partition.
	kept := records[:0]
	for _, rec := range records {
		if len(rec.seq) > 0 {
			kept = append(kept, rec)
		}
	}
	records = kept

	raw := make([]string, len(records))
	for i, rec := range records {
		raw[i] = rec.id
	}
	resolved, err := resolveNames(path, raw, opts.Names)
	if err != nil {
		return nil, err
	}

	width := 0
	if len(records) > 0 {
		width = len(records[0].seq)
	}
	charType := alphabet.Nucleic
	for i, rec := range records {
		if len(rec.seq) != width {
			return nil, &AlignmentLengthError{File: path, Terminal: resolved[i], Want: width, Got: len(rec.seq)}
		}
		t, bad, ok := alphabet.Classify(rec.seq)
		if !ok {
			return nil, &InvalidSymbolError{
				File:     path,
				Terminal: resolved[i],
				Symbol:   bad,
				Column:   bytes.IndexByte(rec.seq, bad),
			}
		}
		if t == alphabet.Peptidic {
			charType = alphabet.Peptidic
		}
	}

	p := &Partition{
		Origin: path,
		Kind:   AlignedSequence,
		Data:   make(map[string][]byte, len(records)),
	}
	for i, rec := range records {
		if charType == alphabet.Peptidic {
			opts.Reduction.Apply(rec.seq)
		}
		p.Data[resolved[i]] = rec.seq
	}
	p.Subpartitions = []*Subpartition{{Size: width, Type: charType}}
	return p, nil
}
