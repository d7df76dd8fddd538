// Package config provides configuration management for the supermatrix CLI.
//
// Values are layered from defaults, a supermatrix.yaml file, SUPERMATRIX_
// environment variables and explicitly set command-line flags, in
// increasing order of precedence.
package config

// Config holds all CLI configuration options.
type Config struct {
	FastaDir       string `koanf:"fasta_dir"`
	TableDir       string `koanf:"table_dir"`
	OutputDir      string `koanf:"output_dir"`
	RootName       string `koanf:"root_name"`
	AAEncoding     string `koanf:"aa_encoding"`
	FullNames      bool   `koanf:"full_names"`
	Indels         bool   `koanf:"indels"`
	GeneContent    bool   `koanf:"gene_content"`
	KeepPercentile int    `koanf:"keep_percentile"`
	Scratch        string `koanf:"scratch"`
	ScratchDir     string `koanf:"scratch_dir"`
	Jobs           int    `koanf:"jobs"`
	StatePath      string `koanf:"state_path"` // empty disables run history
	Verbose        bool   `koanf:"verbose"`
	LogFormat      string `koanf:"log_format"`
	OutputFormat   string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultOutputDir      = "."
	DefaultAAEncoding     = "20"
	DefaultKeepPercentile = 100
	DefaultScratch        = "disk"
	DefaultJobs           = 1
	DefaultStateFile      = ".supermatrix/state.db"
	DefaultLogFormat      = "text"
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Defaults returns the default value of every key.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"output_dir":      DefaultOutputDir,
		"aa_encoding":     DefaultAAEncoding,
		"full_names":      false,
		"indels":          true,
		"gene_content":    true,
		"keep_percentile": DefaultKeepPercentile,
		"scratch":         DefaultScratch,
		"jobs":            DefaultJobs,
		"state_path":      DefaultStateFile,
		"verbose":         false,
		"log_format":      DefaultLogFormat,
		"output":          DefaultOutput,
	}
}

// DefaultConfig returns a Config holding only default values.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:      DefaultOutputDir,
		AAEncoding:     DefaultAAEncoding,
		Indels:         true,
		GeneContent:    true,
		KeepPercentile: DefaultKeepPercentile,
		Scratch:        DefaultScratch,
		Jobs:           DefaultJobs,
		StatePath:      DefaultStateFile,
		LogFormat:      DefaultLogFormat,
		OutputFormat:   DefaultOutput,
	}
}
