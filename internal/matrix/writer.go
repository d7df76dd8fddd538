// Package matrix writes the aggregated terminals as extended PHYLIP
// matrices, partition maps for RAxML-NG and IQ-TREE, and a TNT xread block.
package matrix

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/partition"
	"github.com/phylokit/supermatrix/internal/terminal"
)

// NameMargin is the padding added after the longest terminal name.
const NameMargin = 10

// UninformativePartitionError reports a multistate region that cannot be
// given a model because it has at most one state.
type UninformativePartitionError struct {
	Index int
	Type  alphabet.CharType
}

func (e *UninformativePartitionError) Error() string {
	return fmt.Sprintf("%s partition is uninformative (p%d)", cases.Title(language.English).String(string(e.Type)), e.Index)
}

// Writer emits every output representation of one run. Regions must
// mirror the ledger of every record, in the same order.
type Writer struct {
	records  []*terminal.Record
	regions  []partition.Region
	registry *partition.Registry
	width    int
}

// NewWriter creates a writer over records and their shared region list.
// registry may be nil when no tabular data was loaded.
func NewWriter(records []*terminal.Record, regions []partition.Region, registry *partition.Registry) *Writer {
	longest := 0
	for _, r := range records {
		if len(r.Name) > longest {
			longest = len(r.Name)
		}
	}
	return &Writer{
		records:  records,
		regions:  regions,
		registry: registry,
		width:    longest + NameMargin,
	}
}

// Types returns the region types in order of first appearance.
func (w *Writer) Types() []alphabet.CharType {
	var c partition.Collection
	for _, r := range w.regions {
		c.Append(r)
	}
	return c.Types()
}

// WritePhylip writes an extended PHYLIP matrix holding every region of the
// given types, or every region when no type is given. Absent data is
// filled with gaps and polymorphic cells are written as missing.
func (w *Writer) WritePhylip(out io.Writer, types ...alphabet.CharType) error {
	keep := func(t alphabet.CharType) bool {
		if len(types) == 0 {
			return true
		}
		for _, k := range types {
			if k == t {
				return true
			}
		}
		return false
	}

	nchar := 0
	for _, r := range w.regions {
		if keep(r.Type) {
			nchar += r.Size
		}
	}

	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "%d %d\n", len(w.records), nchar)
	for _, rec := range w.records {
		if err := w.checkLedger(rec); err != nil {
			return err
		}
		bw.WriteString(w.pad(rec.Name))
		err := rec.Walk(func(_ int, e terminal.Entry, data []byte) error {
			if !keep(e.Type) {
				return nil
			}
			if data == nil {
				bw.WriteString(strings.Repeat(string(alphabet.Gap), e.Size))
				return nil
			}
			for _, c := range data {
				if partition.IsPlaceholder(c) {
					c = alphabet.Missing
				}
				bw.WriteByte(c)
			}
			return nil
		})
		if err != nil {
			return err
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WritePartitionMap writes the RAxML-NG partition file: one
// "<model>, p<i> = <start>-<end>" line per region, 1-based and inclusive.
func (w *Writer) WritePartitionMap(out io.Writer) error {
	var sb strings.Builder
	start := 1
	for i, r := range w.regions {
		model, err := raxmlModel(i+1, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(&sb, "%s, p%d = %d-%d\n", model, i+1, start, start+r.Size-1)
		start += r.Size
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

// WriteNexusSets writes the IQ-TREE sets block. Coordinates of each charset
// are relative to the per-type matrix <root>_<type>.phy.
func (w *Writer) WriteNexusSets(out io.Writer, root string) error {
	var sb strings.Builder
	sb.WriteString("#nexus\nbegin sets;\n")
	next := make(map[alphabet.CharType]int)
	models := make([]string, 0, len(w.regions))
	for i, r := range w.regions {
		start := next[r.Type] + 1
		fmt.Fprintf(&sb, "\tcharset part%d = %s: %d-%d;\n", i+1, PerTypeFile(root, r.Type), start, start+r.Size-1)
		next[r.Type] += r.Size
		models = append(models, fmt.Sprintf("%s:part%d", nexusModels[r.Type], i+1))
	}
	fmt.Fprintf(&sb, "\tcharpartition mine = %s;\nend;\n", strings.Join(models, ", "))
	_, err := io.WriteString(out, sb.String())
	return err
}

// WriteTNT writes the xread block. Only informative columns are written;
// symbols are translated to numeric state codes, polymorphisms expanded
// and gaps written as missing.
func (w *Writer) WriteTNT(out io.Writer) error {
	nchar := 0
	if len(w.records) > 0 {
		for _, e := range w.records[0].Ledger {
			nchar += len(e.Informative)
		}
	}

	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "nstates %d;\nxread\n'xread file processed with supermatrix.'\n%d %d\n", alphabet.MaxStates, nchar, len(w.records))
	for _, rec := range w.records {
		if err := w.checkLedger(rec); err != nil {
			return err
		}
		bw.WriteString(w.pad(rec.Name))
		err := rec.Walk(func(_ int, e terminal.Entry, data []byte) error {
			if data == nil {
				bw.WriteString(strings.Repeat(string(alphabet.Missing), len(e.Informative)))
				return nil
			}
			tr := alphabet.TranslatorFor(e.Type)
			for _, col := range e.Informative {
				c := data[col]
				if partition.IsPlaceholder(c) {
					states, ok := w.expand(c)
					if !ok {
						return fmt.Errorf("unregistered polymorphism placeholder 0x%02x", c)
					}
					bw.WriteString(states)
					continue
				}
				bw.WriteString(tr.Symbol(c))
			}
			return nil
		})
		if err != nil {
			return err
		}
		bw.WriteByte('\n')
	}
	bw.WriteString(";\n")
	return bw.Flush()
}

func (w *Writer) expand(c byte) (string, bool) {
	if w.registry == nil {
		return "", false
	}
	return w.registry.Expand(c)
}

func (w *Writer) pad(name string) string {
	return name + strings.Repeat(" ", w.width-len(name))
}

func (w *Writer) checkLedger(rec *terminal.Record) error {
	if len(rec.Ledger) != len(w.regions) {
		return fmt.Errorf("ledger of %s has %d entries, partition map has %d", rec.Name, len(rec.Ledger), len(w.regions))
	}
	return nil
}

// PerTypeFile returns the name of the per-type matrix of root.
func PerTypeFile(root string, t alphabet.CharType) string {
	return fmt.Sprintf("%s_%s.phy", root, t)
}
