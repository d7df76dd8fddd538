package names

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phylokit/supermatrix/internal/partition"
)

// Allow-listed extensions per input kind.
var extensions = map[partition.FileKind][]string{
	partition.AlignedSequence: {".fasta", ".fas", ".fa", ".fna", ".faa", ".ffn", ".fst", ".aln"},
	partition.Tabular:         {".tsv", ".tab", ".txt"},
}

// Discovered holds the files found under one input directory.
type Discovered struct {
	Kind    partition.FileKind
	Files   []string
	Skipped []string // files with an extension outside the allow-list
}

// Discover walks dir recursively and returns its input files sorted by path.
// Hidden files are ignored.
func Discover(dir string, kind partition.FileKind) (*Discovered, error) {
	allowed, ok := extensions[kind]
	if !ok {
		return nil, fmt.Errorf("unknown file kind %q", kind)
	}

	out := &Discovered{Kind: kind}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, a := range allowed {
			if ext == a {
				out.Files = append(out.Files, path)
				return nil
			}
		}
		out.Skipped = append(out.Skipped, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	sort.Strings(out.Files)
	sort.Strings(out.Skipped)
	if len(out.Files) == 0 {
		return out, fmt.Errorf("input directory %s does not contain any %s files", dir, kind)
	}
	return out, nil
}

// KindOf returns the input kind implied by the extension of path.
func KindOf(path string) (partition.FileKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, kind := range []partition.FileKind{partition.AlignedSequence, partition.Tabular} {
		for _, a := range extensions[kind] {
			if ext == a {
				return kind, true
			}
		}
	}
	return "", false
}
