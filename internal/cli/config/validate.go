package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/cli/output"
	"github.com/phylokit/supermatrix/internal/terminal"
)

// Validate checks the values needed to build a matrix.
func (c *Config) Validate() error {
	if c.RootName == "" {
		return fmt.Errorf("root_name is required")
	}
	if strings.ContainsAny(c.RootName, `/\`) {
		return fmt.Errorf("root_name must be a file name prefix, got %q", c.RootName)
	}
	if c.FastaDir == "" && c.TableDir == "" {
		return fmt.Errorf("fasta_dir or table_dir is required")
	}
	if err := c.ValidateOptions(); err != nil {
		return err
	}
	if c.KeepPercentile < 1 || c.KeepPercentile > 100 {
		return fmt.Errorf("keep_percentile must be between 1 and 100, got %d", c.KeepPercentile)
	}
	switch terminal.ScratchMode(c.Scratch) {
	case terminal.ScratchMemory, terminal.ScratchDisk:
	default:
		return fmt.Errorf("unknown scratch mode %q (valid: %s, %s)", c.Scratch, terminal.ScratchMemory, terminal.ScratchDisk)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	return nil
}

// ValidateOptions checks the values shared by every command.
func (c *Config) ValidateOptions() error {
	if _, err := alphabet.NewReduction(c.AAEncoding); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (valid: text, json)", c.LogFormat)
	}
	if !output.Mode(c.OutputFormat).Valid() {
		return fmt.Errorf("unknown output %q (valid: %s)", c.OutputFormat, strings.Join(output.Modes(), ", "))
	}
	return nil
}

// ValidateDirectories checks that the configured input directories exist.
func (c *Config) ValidateDirectories() error {
	for _, d := range []struct{ key, path string }{
		{"fasta-dir", c.FastaDir},
		{"table-dir", c.TableDir},
	} {
		if d.path == "" {
			continue
		}
		info, err := os.Stat(d.path)
		if os.IsNotExist(err) {
			return fmt.Errorf("input directory does not exist: %s\nHint: Create the directory or use --%s to specify a different path", d.path, d.key)
		}
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", d.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("input path is not a directory: %s", d.path)
		}
	}
	return nil
}
