package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/phylokit/supermatrix/internal/cli/output"
	"github.com/phylokit/supermatrix/internal/engine"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the super-matrix",
		Long: `Load every alignment and character table, code indels and gene content,
drop uninformative data and write the concatenated matrices.

Outputs written to --output-dir:
  <root>.phy          extended PHYLIP matrix of every partition
  <root>_<type>.phy   one PHYLIP matrix per character type
  <root>.part         RAxML-NG partition map
  <root>.nex          IQ-TREE sets block
  <root>.ss           TNT matrix of the informative characters
  <root>.log.yaml     processing log

Limits:
  Polymorphic table cells ("0|1") are stored as placeholder symbols shared by
  the whole run. At most 128 distinct state combinations can be registered;
  the next one aborts the run with "polymorphism registry is full".`,
		Example: `  # Build from a directory of alignments
  supermatrix run --fasta-dir alignments --root-name insects

  # Add morphology and keep the best-occupied 80% of the loci
  supermatrix run --fasta-dir alignments --table-dir morphology \
    --root-name insects --keep-percentile 80

  # Reduce amino acids to six Dayhoff groups, no indel coding
  supermatrix run --fasta-dir proteins --root-name prot --aa-encoding 6dso --indels=false`,
		Aliases: []string{"build"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd)
		},
	}

	return cmd
}

func runRun(cmd *cobra.Command) error {
	cfg := getConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := engine.New(engineConfig(cmdCtx.Cfg, cmdCtx.Store, cmdCtx.Logger))
	if err != nil {
		return err
	}

	startTime := time.Now()
	report, err := eng.Run(cmd.Context())
	if err != nil {
		if report != nil && report.RunID != "" {
			return fmt.Errorf("run %s failed: %w", report.RunID, err)
		}
		return fmt.Errorf("run failed: %w", err)
	}

	if cmdCtx.Store == nil {
		cmdCtx.Renderer.Warn("run history is disabled (state_path is empty), this run was not recorded")
	}
	warnExclusions(cmdCtx.Renderer, report)
	renderReport(cmdCtx.Renderer, report, time.Since(startTime))
	return nil
}

// warnExclusions reports every input file left out of the matrix on the
// error stream, so it stays visible when the summary is redirected.
func warnExclusions(r *output.Renderer, report *engine.Report) {
	for _, f := range report.Excluded {
		r.Warn(fmt.Sprintf("%s excluded: %s", f.Path, f.Reason))
	}
	for _, path := range report.Dropped {
		r.Warn(path + " excluded: below occupancy percentile")
	}
}

// renderReport prints the summary of a completed run.
func renderReport(r *output.Renderer, report *engine.Report, elapsed time.Duration) {
	title := cases.Title(language.English)

	r.Header(1, fmt.Sprintf("Super-matrix %s", report.RootName))
	if report.RunID != "" {
		r.KeyValue("Run", report.RunID)
	}
	r.KeyValue("Terminals", report.Terminals)
	r.KeyValue("Characters", report.Characters)
	r.KeyValue("Informative", report.Informative)
	r.KeyValue("Files", fmt.Sprintf("%d retained, %d excluded", len(report.Retained), len(report.Excluded)+len(report.Dropped)))
	r.Println("")

	r.Header(2, "Partitions")
	rows := make([]table.Row, 0, len(report.Regions))
	for i, reg := range report.Regions {
		rows = append(rows, table.Row{i + 1, title.String(string(reg.Type)), reg.Origin, fmt.Sprintf("%d-%d", reg.Start, reg.End)})
	}
	r.Table(table.Row{"#", "Type", "Source", "Range"}, rows)

	if len(report.Excluded)+len(report.Dropped) > 0 {
		r.Println("")
		r.Header(2, "Excluded")
		var excluded []table.Row
		for _, f := range report.Excluded {
			excluded = append(excluded, table.Row{f.Path, f.Reason})
		}
		for _, path := range report.Dropped {
			excluded = append(excluded, table.Row{path, "below occupancy percentile"})
		}
		r.Table(table.Row{"File", "Reason"}, excluded)
	}

	if len(report.Pruned) > 0 {
		r.Println("")
		r.KeyValue("Pruned", strings.Join(report.Pruned, ", "))
	}

	r.Println("")
	r.Header(2, "Outputs")
	for _, path := range report.Outputs {
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Printf("- `%s`\n", path)
		} else {
			r.Printf("  %s\n", path)
		}
	}
	r.Println("")
	r.Printf("Completed in %s\n", elapsed.Round(time.Millisecond))
}
