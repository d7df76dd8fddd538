package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phylokit/supermatrix/internal/testutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supermatrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.RootName = "matrix"
	cfg.FastaDir = "fasta"
	return cfg
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultAAEncoding, cfg.AAEncoding)
	assert.True(t, cfg.Indels)
	assert.True(t, cfg.GeneContent)
	assert.False(t, cfg.FullNames)
	assert.Equal(t, DefaultKeepPercentile, cfg.KeepPercentile)
	assert.Equal(t, DefaultScratch, cfg.Scratch)
	assert.Equal(t, DefaultJobs, cfg.Jobs)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, `fasta_dir: alignments
table_dir: /data/morphology
root_name: insects
aa_encoding: 6dso
full_names: true
indels: false
keep_percentile: 75
scratch: memory
jobs: 4
`)
	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	root := filepath.Dir(cfgPath)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(root, "alignments"), cfg.FastaDir, "file paths resolve against the file directory")
	assert.Equal(t, "/data/morphology", cfg.TableDir)
	assert.Equal(t, "insects", cfg.RootName)
	assert.Equal(t, "6dso", cfg.AAEncoding)
	assert.True(t, cfg.FullNames)
	assert.False(t, cfg.Indels)
	assert.True(t, cfg.GeneContent, "unset keys keep their default")
	assert.Equal(t, 75, cfg.KeepPercentile)
	assert.Equal(t, "memory", cfg.Scratch)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, DefaultStateFile, cfg.StatePath, "default paths are not resolved")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "root_name: from_file\n")
	t.Setenv("SUPERMATRIX_ROOT_NAME", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("root-name", "", "root name")
	require.NoError(t, flags.Set("root-name", "from_flag"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.RootName, "flag value should override config file and env var")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "root_name: from_file\nfasta_dir: from_file\n")
	t.Setenv("SUPERMATRIX_ROOT_NAME", "from_env")
	t.Setenv("SUPERMATRIX_FASTA_DIR", "from_env")
	t.Setenv("SUPERMATRIX_JOBS", "3")
	t.Setenv("SUPERMATRIX_GENE_CONTENT", "false")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.RootName)
	assert.Equal(t, "from_env", cfg.FastaDir, "env paths stay relative to the working directory")
	assert.Equal(t, 3, cfg.Jobs)
	assert.False(t, cfg.GeneContent)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()

	t.Setenv("SUPERMATRIX_ROOT_NAME", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("root-name", "", "root name")

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.RootName, "env var should be used when flag is not set")
}

func TestLoadConfig_FlagMapping(t *testing.T) {
	ResetConfig()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "state path")
	flags.Int("keep-percentile", 0, "percentile")
	flags.Bool("indels", true, "indels")
	require.NoError(t, flags.Set("state", ""))
	require.NoError(t, flags.Set("keep-percentile", "50"))
	require.NoError(t, flags.Set("indels", "false"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Empty(t, cfg.StatePath, "an explicit empty --state disables history")
	assert.Equal(t, 50, cfg.KeepPercentile)
	assert.False(t, cfg.Indels)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"tables only", func(c *Config) { c.FastaDir = ""; c.TableDir = "tables" }, ""},
		{"missing root name", func(c *Config) { c.RootName = "" }, "root_name is required"},
		{"root name with separator", func(c *Config) { c.RootName = "out/matrix" }, "file name prefix"},
		{"no inputs", func(c *Config) { c.FastaDir = "" }, "fasta_dir or table_dir is required"},
		{"unknown encoding", func(c *Config) { c.AAEncoding = "7" }, "unknown amino acid encoding"},
		{"percentile zero", func(c *Config) { c.KeepPercentile = 0 }, "keep_percentile"},
		{"percentile too high", func(c *Config) { c.KeepPercentile = 101 }, "keep_percentile"},
		{"unknown scratch", func(c *Config) { c.Scratch = "tape" }, "unknown scratch mode"},
		{"no jobs", func(c *Config) { c.Jobs = 0 }, "jobs must be at least 1"},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, "unknown log_format"},
		{"unknown output", func(c *Config) { c.OutputFormat = "html" }, "unknown output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateDirectories(t *testing.T) {
	dir := t.TempDir()
	notDir := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0600))

	cfg := validConfig()
	cfg.FastaDir = dir
	assert.NoError(t, cfg.ValidateDirectories())

	cfg.TableDir = filepath.Join(dir, "missing")
	err := cfg.ValidateDirectories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--table-dir")

	cfg.TableDir = notDir
	err = cfg.ValidateDirectories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger := testutil.NewTestLogger(t)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
