package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phylokit/supermatrix/internal/engine"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize one input file",
		Long: `Load a single alignment or character table, code its indels and report
each subpartition with its width and informative column count as YAML.

Nothing is aggregated and no output file is written, which makes inspect
useful to check why a file is excluded from a run.`,
		Example: `  # Inspect an alignment
  supermatrix inspect alignments/cox1.fasta

  # Inspect a protein alignment under a reduced alphabet
  supermatrix inspect proteins/ef1a.faa --aa-encoding 6dso`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}

	return cmd
}

func runInspect(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	if err := cmdCtx.Cfg.ValidateOptions(); err != nil {
		return err
	}

	report, err := engine.Inspect(path, engine.InspectOptions{
		FullNames:  cmdCtx.Cfg.FullNames,
		AAEncoding: cmdCtx.Cfg.AAEncoding,
		Indels:     cmdCtx.Cfg.Indels,
	})
	if err != nil {
		return err
	}
	cmdCtx.Logger.Debug("inspected file", slog.String("file", path), slog.Int("characters", report.Characters()))

	enc := yaml.NewEncoder(cmdCtx.Renderer.Out())
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
