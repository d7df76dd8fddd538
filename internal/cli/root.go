// Package cli provides the command-line interface for supermatrix.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/cli/commands"
	"github.com/phylokit/supermatrix/internal/cli/config"
	"github.com/phylokit/supermatrix/internal/cli/output"
)

var cfgFile string

// Version information (set at build time with -ldflags "-X").
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "supermatrix",
		Short: "supermatrix - Phylogenetic super-matrix builder",
		Long: `supermatrix concatenates aligned sequence files and tab-separated character
tables into one super-matrix for phylogenetic inference.

Terminals are matched across files by species name, indels and gene presence
are coded as extra binary characters, uninformative files are dropped and the
result is written as PHYLIP, RAxML-NG and IQ-TREE partition files and a TNT
matrix.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateOptions(); err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, config.LoggerKey(), logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Phylogenetic super-matrix builder
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./supermatrix.yaml)")
	flags.String("fasta-dir", "", "Directory of aligned sequence files")
	flags.String("table-dir", "", "Directory of tab-separated character tables")
	flags.String("output-dir", "", "Directory receiving the output files (default: .)")
	flags.StringP("root-name", "r", "", "Prefix of every output file")
	flags.String("aa-encoding", "", "Amino acid reduction ("+strings.Join(alphabet.Encodings(), "|")+")")
	flags.Bool("full-names", false, "Keep whole identifiers instead of species names")
	flags.Bool("indels", true, "Code indels of sequence files as binary characters")
	flags.Bool("gene-content", true, "Add gene presence/absence characters")
	flags.Int("keep-percentile", 0, "Keep the best-occupied percentage of sequence files (1-100)")
	flags.String("scratch", "", "Where terminal data is buffered (memory|disk)")
	flags.String("scratch-dir", "", "Parent directory of disk scratch data")
	flags.IntP("jobs", "j", 0, "Number of files loaded concurrently")
	flags.String("state", "", "Path to run history database (empty disables)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.String("log-format", "", "Log format (text|json)")
	flags.StringP("output", "o", "", "Output format (auto|text|markdown)")

	// Register completion for enumerated flags
	completions := map[string][]string{
		"output":      output.Modes(),
		"log-format":  {"text", "json"},
		"scratch":     {"memory", "disk"},
		"aa-encoding": alphabet.Encodings(),
	}
	for name, values := range completions {
		_ = rootCmd.RegisterFlagCompletionFunc(name, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		})
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(commands.BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
	}))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger builds the process logger: text or JSON records on w, Debug
// level when verbose.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for supermatrix.

To load completions:

Bash:
  $ source <(supermatrix completion bash)

Zsh:
  $ supermatrix completion zsh > "${fpath[1]}/_supermatrix"

Fish:
  $ supermatrix completion fish | source

PowerShell:
  PS> supermatrix completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
