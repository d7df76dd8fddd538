// Package state records the history of matrix builds in a SQLite database:
// one row per run and one row per input file it considered.
package state

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// FileStatus is the outcome of one input file within a run.
type FileStatus string

// File statuses.
const (
	FileRetained FileStatus = "retained"
	FileExcluded FileStatus = "excluded"
	FileSkipped  FileStatus = "skipped"
)

// Run is one invocation of the build pipeline.
type Run struct {
	ID          string
	RootName    string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Terminals   int
	Characters  int
}

// RunFile is one input file considered by a run.
type RunFile struct {
	RunID       string
	Path        string
	Kind        string
	Status      FileStatus
	Characters  int
	Informative int
	Reason      string
}

// RunStats are the totals written when a run completes.
type RunStats struct {
	Terminals  int
	Characters int
}

// Store persists run history.
type Store interface {
	CreateRun(rootName string) (*Run, error)
	RecordFile(f RunFile) error
	CompleteRun(id string, status RunStatus, errMsg string, stats RunStats) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	ListFiles(runID string) ([]RunFile, error)
	Close() error
}
