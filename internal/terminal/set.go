package terminal

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/partition"
)

// Set owns one Record per terminal name and the scratch backend behind
// them. Records are kept sorted by name.
type Set struct {
	records []*Record
	scratch Scratch
	logger  *slog.Logger
}

// NewSet creates a record for every distinct name. The set takes ownership
// of scratch and releases it on Close.
func NewSet(names []string, scratch Scratch, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Set{scratch: scratch, logger: logger}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for i, name := range sorted {
		if i > 0 && sorted[i-1] == name {
			continue
		}
		store, err := scratch.NewStore(name)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.records = append(s.records, newRecord(name, store))
	}
	return s, nil
}

// Records returns the records in name order.
func (s *Set) Records() []*Record {
	return s.records
}

// Len returns the number of records.
func (s *Set) Len() int {
	return len(s.records)
}

// Names returns the terminal names in order.
func (s *Set) Names() []string {
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.Name
	}
	return out
}

// Feed appends p to every record, keeping all ledgers in lockstep. Callers
// must feed partitions one at a time and in a fixed order.
func (s *Set) Feed(p *partition.Partition) error {
	for _, r := range s.records {
		if err := r.Feed(p); err != nil {
			return err
		}
	}
	return nil
}

// Prune drops records without any present entry and returns their names.
func (s *Set) Prune() []string {
	var dropped []string
	kept := s.records[:0]
	for _, r := range s.records {
		if r.HasData() {
			kept = append(kept, r)
			continue
		}
		dropped = append(dropped, r.Name)
		_ = r.store.Close()
	}
	s.records = kept
	if len(dropped) > 0 {
		s.logger.Debug("pruned terminals without data", slog.Any("terminals", dropped))
	}
	return dropped
}

// DeriveGeneContent appends a gene_content entry to every record: one
// character per sequence ledger entry, '1' when the terminal was present
// in it. A column is informative when at least two terminals have the gene
// and at least two lack it. ok is false when no sequence entries exist.
func (s *Set) DeriveGeneContent() (region partition.Region, ok bool, err error) {
	if len(s.records) == 0 {
		return partition.Region{}, false, nil
	}

	var genes []int
	for i, e := range s.records[0].Ledger {
		if e.Type == alphabet.Nucleic || e.Type == alphabet.Peptidic {
			genes = append(genes, i)
		}
	}
	if len(genes) == 0 {
		return partition.Region{}, false, nil
	}

	present := make([]int, len(genes))
	rows := make([][]byte, len(s.records))
	for ri, r := range s.records {
		if len(r.Ledger) != len(s.records[0].Ledger) {
			return partition.Region{}, false, fmt.Errorf("ledger of %s is out of step (%d entries, expected %d)",
				r.Name, len(r.Ledger), len(s.records[0].Ledger))
		}
		row := make([]byte, len(genes))
		for gi, li := range genes {
			if r.Ledger[li].Present {
				row[gi] = '1'
				present[gi]++
			} else {
				row[gi] = '0'
			}
		}
		rows[ri] = row
	}

	var informative []int
	for gi, n := range present {
		if n >= 2 && len(s.records)-n >= 2 {
			informative = append(informative, gi)
		}
	}

	entry := Entry{Size: len(genes), Type: alphabet.GeneContent, Informative: informative}
	for ri, r := range s.records {
		if err := r.appendDerived(entry, rows[ri]); err != nil {
			return partition.Region{}, false, err
		}
	}
	s.logger.Debug("derived gene content",
		slog.Int("genes", len(genes)),
		slog.Int("informative", len(informative)))

	return partition.Region{Origin: string(alphabet.GeneContent), Size: len(genes), Type: alphabet.GeneContent, States: 2}, true, nil
}

// Close releases every store and the scratch backend.
func (s *Set) Close() error {
	var errs []error
	for _, r := range s.records {
		if err := r.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.scratch != nil {
		if err := s.scratch.Close(); err != nil {
			errs = append(errs, err)
		}
		s.scratch = nil
	}
	return errors.Join(errs...)
}
