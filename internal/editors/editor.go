// Package editors rewrites the three system configuration files debtune
// manages. Every edit takes a backup first, then writes the new content, then
// runs the command that activates it.
package editors

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/debtune/internal/backup"
	"github.com/blackwell-systems/debtune/internal/logging"
	"github.com/blackwell-systems/debtune/internal/runner"
)

// ErrBackupRequired is returned when RequireBackup is set and the pre-edit
// backup failed.
var ErrBackupRequired = errors.New("backup failed and require_backup is set")

// Options tunes how files are written.
type Options struct {
	// AtomicWrites writes to a temp file in the target directory and renames
	// it into place instead of truncating the target.
	AtomicWrites bool

	// RequireBackup aborts an edit when its backup failed. A missing target
	// (nothing to back up) never aborts.
	RequireBackup bool
}

// Result reports what an edit did.
type Result struct {
	Target    string
	Backup    backup.Result
	Written   bool
	Activated bool
	Err       error
}

// Editor applies configuration edits.
type Editor struct {
	backups *backup.Manager
	runner  runner.Runner
	logger  *log.Logger
	opts    Options
}

// New creates an Editor.
func New(backups *backup.Manager, r runner.Runner, logger *log.Logger, opts Options) *Editor {
	return &Editor{
		backups: backups,
		runner:  r,
		logger:  logging.OrDiscard(logger).WithPrefix("editor"),
		opts:    opts,
	}
}

// prepare backs up path and decides whether the edit may go ahead.
func (e *Editor) prepare(path string) (Result, bool) {
	res := Result{Target: path, Backup: e.backups.Backup(path)}

	if e.opts.RequireBackup && res.Backup.Outcome == backup.Failed {
		res.Err = fmt.Errorf("%w: %v", ErrBackupRequired, res.Backup.Err)
		e.logger.Warn("Edit aborted because the backup failed", "path", path)
		return res, false
	}
	return res, true
}

// writeFile replaces path's content. An existing file keeps its permission
// bits; a new one gets 0644.
func (e *Editor) writeFile(path string, data []byte) error {
	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	if e.opts.AtomicWrites {
		return writeFileAtomic(path, data, perm)
	}
	return os.WriteFile(path, data, perm)
}

// writeFileAtomic writes data next to path and renames it into place, so a
// reader sees either the old or the new content.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := fmt.Sprintf("%s.debtune.tmp.%d", path, time.Now().UnixNano())

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return err
	}

	_, writeErr := f.Write(data)
	if writeErr == nil {
		writeErr = f.Sync()
	}
	if writeErr == nil {
		writeErr = f.Chmod(perm)
	}
	closeErr := f.Close()

	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return closeErr
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	// Best effort: persist the rename.
	if dir, err := os.Open(filepath.Dir(path)); err == nil {
		_ = dir.Sync()
		dir.Close()
	}
	return nil
}
