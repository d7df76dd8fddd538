package terminal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// ScratchMode selects where terminal character data is buffered.
type ScratchMode string

// Scratch modes.
const (
	ScratchMemory ScratchMode = "memory"
	ScratchDisk   ScratchMode = "disk"
)

// Store is an append-only byte buffer owned by one terminal record.
type Store interface {
	io.Writer
	// Open returns a reader positioned at the first byte written.
	Open() (io.ReadCloser, error)
	Close() error
}

// Scratch hands out stores and releases every one of them on Close.
type Scratch interface {
	NewStore(name string) (Store, error)
	Close() error
}

// NewScratch returns the scratch backend for mode. Disk scratch lives in a
// fresh temporary directory under dir (os.TempDir when empty).
func NewScratch(mode ScratchMode, dir string) (Scratch, error) {
	switch mode {
	case ScratchMemory:
		return &memoryScratch{}, nil
	case ScratchDisk, "":
		return newDiskScratch(dir)
	default:
		return nil, fmt.Errorf("unknown scratch mode %q", mode)
	}
}

type memoryScratch struct{}

func (memoryScratch) NewStore(string) (Store, error) { return &memoryStore{}, nil }

func (memoryScratch) Close() error { return nil }

type memoryStore struct {
	buf bytes.Buffer
}

func (m *memoryStore) Write(p []byte) (int, error) { return m.buf.Write(p) }

func (m *memoryStore) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.buf.Bytes())), nil
}

func (m *memoryStore) Close() error {
	m.buf = bytes.Buffer{}
	return nil
}

// diskScratch keeps one file per terminal in a private temporary
// directory. Close removes the directory with everything in it.
type diskScratch struct {
	mu     sync.Mutex
	dir    string
	n      int
	stores []*fileStore
}

func newDiskScratch(parent string) (*diskScratch, error) {
	dir, err := os.MkdirTemp(parent, "supermatrix-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &diskScratch{dir: dir}, nil
}

func (d *diskScratch) NewStore(name string) (Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Terminal names are already filesystem-safe; the counter keeps paths
	// distinct regardless.
	path := filepath.Join(d.dir, strconv.Itoa(d.n)+"_"+name+".dat")
	d.n++
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // G304: path is inside our own temp dir
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file for %s: %w", name, err)
	}
	s := &fileStore{path: path, f: f}
	d.stores = append(d.stores, s)
	return s, nil
}

func (d *diskScratch) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.stores {
		_ = s.Close()
	}
	d.stores = nil
	if err := os.RemoveAll(d.dir); err != nil {
		return fmt.Errorf("failed to remove scratch directory %s: %w", d.dir, err)
	}
	return nil
}

type fileStore struct {
	path string
	f    *os.File
}

func (s *fileStore) Write(p []byte) (int, error) {
	if s.f == nil {
		return 0, os.ErrClosed
	}
	return s.f.Write(p)
}

func (s *fileStore) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scratch file: %w", err)
	}
	return f, nil
}

func (s *fileStore) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
