// Package engine runs the matrix build: it discovers and loads the input
// files, derives indel and gene-content characters, filters uninformative
// data and writes every output file.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/state"
	"github.com/phylokit/supermatrix/internal/terminal"
)

// Engine builds super-matrices from a set of input directories.
type Engine struct {
	cfg       Config
	reduction *alphabet.Reduction
	store     state.Store
	logger    *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// FastaDir holds aligned sequence files (optional if TableDir is set)
	FastaDir string
	// TableDir holds tab-separated character matrices (optional)
	TableDir string
	// OutputDir receives every output file
	OutputDir string
	// RootName prefixes every output file name
	RootName string
	// AAEncoding names the amino-acid reduction; "" or "20" keeps all residues
	AAEncoding string
	// FullNames keeps the whole identifier instead of its species root
	FullNames bool
	// Indels enables simple indel coding of sequence files
	Indels bool
	// GeneContent enables the gene presence/absence block
	GeneContent bool
	// KeepPercentile keeps the best-occupied share of sequence files (1-100)
	KeepPercentile int
	// Scratch selects where terminal data is buffered
	Scratch terminal.ScratchMode
	// ScratchDir is the parent of the disk scratch directory (os.TempDir if empty)
	ScratchDir string
	// Jobs bounds the number of files loaded concurrently
	Jobs int
	// Store records run history (optional)
	Store state.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New validates cfg and creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.FastaDir == "" && cfg.TableDir == "" {
		return nil, fmt.Errorf("no input directory given")
	}
	if cfg.RootName == "" {
		return nil, fmt.Errorf("root name is required")
	}
	if cfg.KeepPercentile == 0 {
		cfg.KeepPercentile = 100
	}
	if cfg.KeepPercentile < 1 || cfg.KeepPercentile > 100 {
		return nil, fmt.Errorf("keep percentile must be between 1 and 100, got %d", cfg.KeepPercentile)
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	reduction, err := alphabet.NewReduction(cfg.AAEncoding)
	if err != nil {
		return nil, err
	}

	logger.Debug("initializing engine",
		slog.String("fasta_dir", cfg.FastaDir),
		slog.String("table_dir", cfg.TableDir),
		slog.String("root_name", cfg.RootName))

	return &Engine{
		cfg:       cfg,
		reduction: reduction,
		store:     cfg.Store,
		logger:    logger,
	}, nil
}
