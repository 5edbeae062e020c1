// Package tuner sequences the backup, restore and optimize workflows over the
// managed configuration files.
package tuner

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/blackwell-systems/debtune/internal/backup"
	"github.com/blackwell-systems/debtune/internal/config"
	"github.com/blackwell-systems/debtune/internal/editors"
	"github.com/blackwell-systems/debtune/internal/logging"
	"github.com/blackwell-systems/debtune/internal/runner"
	"github.com/blackwell-systems/debtune/internal/store"
)

// RebootPrompt is asked once every optimize step has run.
const RebootPrompt = "Optimization complete. Do you want to reboot now? (y/n): "

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Tuner runs the top-level workflows. All work is sequential.
type Tuner struct {
	cfg     *config.Config
	backups *backup.Manager
	editor  *editors.Editor
	runner  runner.Runner
	store   *store.Store
	logger  *log.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Tuner. st may be nil to skip the history ledger.
func New(cfg *config.Config, backups *backup.Manager, editor *editors.Editor, r runner.Runner, st *store.Store, logger *log.Logger) *Tuner {
	return &Tuner{
		cfg:     cfg,
		backups: backups,
		editor:  editor,
		runner:  r,
		store:   st,
		logger:  logging.OrDiscard(logger).WithPrefix("tuner"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run actions recorded in the history ledger.
const (
	ActionBackup   = "backup"
	ActionRestore  = "restore"
	ActionOptimize = "optimize"
)

// BackupAll backs up every target in order. Individual failures are logged
// and do not stop the remaining targets.
func (t *Tuner) BackupAll() []backup.Result {
	t.logger.Info("Backing up current settings...")

	results := t.eachTarget(ActionBackup, t.backups.Backup)

	t.logger.Info("Backup complete.")
	return results
}

// RestoreAll restores the newest backup of every target in order.
func (t *Tuner) RestoreAll() []backup.Result {
	t.logger.Info("Restoring from backup...")

	results := t.eachTarget(ActionRestore, t.backups.Restore)

	t.logger.Info("Restore complete.")
	return results
}

func (t *Tuner) eachTarget(action string, fn func(path string) backup.Result) []backup.Result {
	report := &Report{RunID: t.newID(), StartedAt: t.now()}
	t.startRun(report, action)

	var results []backup.Result
	for _, target := range t.cfg.Targets.All() {
		res := fn(target.Path)
		results = append(results, res)
		t.record(report, resultStep(target.Name, res))
	}

	report.FinishedAt = t.now()
	t.finishRun(report)
	return results
}

// resultStep maps a backup or restore result onto a step; "nothing to do"
// counts as skipped.
func resultStep(name string, res backup.Result) Step {
	switch res.Outcome {
	case backup.OK:
		return Step{Name: name, Status: store.StepOK, Detail: res.Record.Stored}
	case backup.NotFound:
		return Step{Name: name, Status: store.StepSkipped, Detail: "nothing to do"}
	default:
		step := Step{Name: name, Status: store.StepFailed}
		if res.Err != nil {
			step.Detail = res.Err.Error()
		}
		return step
	}
}
