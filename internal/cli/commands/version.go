package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phylokit/supermatrix/internal/alphabet"
)

// BuildInfo is the version metadata stamped into the binary at link time.
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the supermatrix version, the commit and date it was built from,
and the amino acid encodings compiled in.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "supermatrix v%s\n", info.Version)
			_, _ = fmt.Fprintf(w, "  commit:      %s\n", orUnknown(info.GitCommit))
			_, _ = fmt.Fprintf(w, "  built:       %s\n", orUnknown(info.BuildDate))
			_, _ = fmt.Fprintf(w, "  go:          %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(w, "  aa encoding: %s\n", strings.Join(alphabet.Encodings(), ", "))
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
