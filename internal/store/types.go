package store

import "time"

// Backup is a ledger row for one backup file written to the backup directory.
type Backup struct {
	ID           int64
	OriginalPath string
	StoredPath   string
	SizeBytes    int64
	CreatedAt    time.Time
}

// Restore is a ledger row for one restored file.
type Restore struct {
	ID           int64
	OriginalPath string
	SourcePath   string
	RestoredAt   time.Time
}

// Run records one orchestrated action (backup-all, restore-all, optimize).
type Run struct {
	ID         string
	Action     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress or was interrupted
	Rebooted   bool
}

// Step status values.
const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// RunStep is the outcome of one step of a run.
type RunStep struct {
	RunID  string
	Seq    int
	Name   string
	Status string // StepOK, StepFailed or StepSkipped
	Detail string
}
