// Package terminal accumulates per-terminal character data across every
// retained partition and derives gene-content characters.
package terminal

import (
	"bufio"
	"fmt"
	"io"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/partition"
)

// Entry is one ledger slot, mirroring a subpartition fed to the record.
type Entry struct {
	Size        int
	Type        alphabet.CharType
	Informative []int
	Present     bool
}

// Record holds one terminal's ledger and its backing store. Only present
// entries have bytes in the store; readers walk the ledger sizes in order.
type Record struct {
	Name   string
	Ledger []Entry
	store  Store
}

func newRecord(name string, store Store) *Record {
	return &Record{Name: name, store: store}
}

// Feed appends every subpartition of p to the ledger and, when the terminal
// occurs in p, its full character data to the store.
func (r *Record) Feed(p *partition.Partition) error {
	data, present := p.Data[r.Name]
	if present {
		if _, err := r.store.Write(data); err != nil {
			return fmt.Errorf("failed to buffer %s data for %s: %w", p.Origin, r.Name, err)
		}
	}
	for _, s := range p.Subpartitions {
		r.Ledger = append(r.Ledger, Entry{
			Size:        s.Size,
			Type:        s.Type,
			Informative: s.Informative,
			Present:     present,
		})
	}
	return nil
}

// appendDerived adds a present entry whose bytes are data.
func (r *Record) appendDerived(e Entry, data []byte) error {
	if _, err := r.store.Write(data); err != nil {
		return fmt.Errorf("failed to buffer derived data for %s: %w", r.Name, err)
	}
	e.Present = true
	r.Ledger = append(r.Ledger, e)
	return nil
}

// HasData reports whether any ledger entry is present.
func (r *Record) HasData() bool {
	for _, e := range r.Ledger {
		if e.Present {
			return true
		}
	}
	return false
}

// Walk calls fn for every ledger entry in order. data holds the entry's
// bytes, or nil when the terminal is absent from it. data is only valid
// during the call.
func (r *Record) Walk(fn func(i int, e Entry, data []byte) error) error {
	rc, err := r.store.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	br := bufio.NewReader(rc)
	var buf []byte
	for i, e := range r.Ledger {
		if !e.Present {
			if err := fn(i, e, nil); err != nil {
				return err
			}
			continue
		}
		if cap(buf) < e.Size {
			buf = make([]byte, e.Size)
		}
		buf = buf[:e.Size]
		if _, err := io.ReadFull(br, buf); err != nil {
			return fmt.Errorf("scratch data of %s is shorter than its ledger: %w", r.Name, err)
		}
		if err := fn(i, e, buf); err != nil {
			return err
		}
	}
	return nil
}
