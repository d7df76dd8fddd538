package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phylokit/supermatrix/internal/cli/config"
	"github.com/phylokit/supermatrix/internal/cli/output"
	"github.com/phylokit/supermatrix/internal/engine"
	"github.com/phylokit/supermatrix/internal/state"
	"github.com/phylokit/supermatrix/internal/terminal"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    state.Store // nil when run history is disabled
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with the run-history store open.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)

	if cmdCtx.Cfg.StatePath == "" {
		cmdCtx.Logger.Debug("run history disabled")
		return cmdCtx, func() {}, nil
	}

	store, err := openStore(cmdCtx.Cfg.StatePath, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Store = store

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a store.
// Useful for commands that don't record or read run history.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.DefaultConfig()
}

func openStore(path string, logger *slog.Logger) (state.Store, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

func engineConfig(cfg *config.Config, store state.Store, logger *slog.Logger) engine.Config {
	return engine.Config{
		FastaDir:       cfg.FastaDir,
		TableDir:       cfg.TableDir,
		OutputDir:      cfg.OutputDir,
		RootName:       cfg.RootName,
		AAEncoding:     cfg.AAEncoding,
		FullNames:      cfg.FullNames,
		Indels:         cfg.Indels,
		GeneContent:    cfg.GeneContent,
		KeepPercentile: cfg.KeepPercentile,
		Scratch:        terminal.ScratchMode(cfg.Scratch),
		ScratchDir:     cfg.ScratchDir,
		Jobs:           cfg.Jobs,
		Store:          store,
		Logger:         logger,
	}
}
