package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/phylokit/supermatrix/internal/cli/output"
	"github.com/phylokit/supermatrix/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs",
		Long: `List recent runs recorded in the state database, newest first.

With a run ID, list the input files that run retained, excluded or skipped.`,
		Example: `  # Show the last 10 runs
  supermatrix history

  # Show every run
  supermatrix history --limit 0

  # Show the files of one run
  supermatrix history 2f1c0b7e-9d0c-4d8e-8f43-5b1b8e3f6a11`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Number of runs to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if cmdCtx.Store == nil {
		return fmt.Errorf("run history is disabled: state_path is empty")
	}

	if len(args) == 1 {
		return showRun(cmdCtx.Renderer, cmdCtx.Store, args[0])
	}
	return listRuns(cmdCtx.Renderer, cmdCtx.Store, opts.Limit)
}

func listRuns(r *output.Renderer, store state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	r.Header(1, fmt.Sprintf("Runs (%d shown)", len(runs)))
	if len(runs) == 0 {
		r.Println("No runs recorded yet.")
		return nil
	}

	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, table.Row{
			run.ID,
			run.RootName,
			string(run.Status),
			run.StartedAt.Local().Format(time.DateTime),
			formatDuration(run),
			run.Terminals,
			run.Characters,
			run.Error,
		})
	}
	r.Table(table.Row{"Run", "Root", "Status", "Started", "Duration", "Terminals", "Characters", "Error"}, rows)
	return nil
}

func showRun(r *output.Renderer, store state.Store, id string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	files, err := store.ListFiles(id)
	if err != nil {
		return err
	}

	r.Header(1, fmt.Sprintf("Run %s", run.ID))
	r.KeyValue("Root", run.RootName)
	r.KeyValue("Status", run.Status)
	r.KeyValue("Started", run.StartedAt.Local().Format(time.DateTime))
	r.KeyValue("Duration", formatDuration(run))
	r.KeyValue("Terminals", run.Terminals)
	r.KeyValue("Characters", run.Characters)
	if run.Error != "" {
		r.KeyValue("Error", run.Error)
	}
	r.Println("")

	r.Header(2, "Files")
	rows := make([]table.Row, 0, len(files))
	for _, f := range files {
		rows = append(rows, table.Row{f.Path, f.Kind, string(f.Status), f.Characters, f.Informative, f.Reason})
	}
	r.Table(table.Row{"File", "Kind", "Status", "Characters", "Informative", "Reason"}, rows)
	return nil
}

func formatDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
