package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Timestamps are stored as UTC RFC3339 strings so that ORDER BY on the
// text column is chronological.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// Backup operations

// InsertBackup records a backup file and returns its ID.
func (s *Store) InsertBackup(b *Backup) (int64, error) {
	query := `
		INSERT INTO backups (original_path, stored_path, size_bytes, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		b.OriginalPath,
		b.StoredPath,
		b.SizeBytes,
		formatTime(b.CreatedAt),
	)
	if err != nil {
		return 0, wrapQueryErr("failed to insert backup", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get backup ID: %w", err)
	}

	return id, nil
}

// ListBackups returns backups newest first. An empty originalPath lists
// backups of every file.
func (s *Store) ListBackups(originalPath string) ([]*Backup, error) {
	query := `
		SELECT id, original_path, stored_path, size_bytes, created_at
		FROM backups
		WHERE (? = '' OR original_path = ?)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.Query(query, originalPath, originalPath)
	if err != nil {
		return nil, wrapQueryErr("failed to list backups", err)
	}
	defer rows.Close()

	var backups []*Backup
	for rows.Next() {
		var b Backup
		var createdAt string

		if err := rows.Scan(&b.ID, &b.OriginalPath, &b.StoredPath, &b.SizeBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup row: %w", err)
		}

		b.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for backup %d: %w", b.ID, err)
		}

		backups = append(backups, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backups: %w", err)
	}

	return backups, nil
}

// Restore operations

// InsertRestore records a restored file and returns its ID.
func (s *Store) InsertRestore(r *Restore) (int64, error) {
	query := `
		INSERT INTO restores (original_path, source_path, restored_at)
		VALUES (?, ?, ?)
	`

	result, err := s.db.Exec(query, r.OriginalPath, r.SourcePath, formatTime(r.RestoredAt))
	if err != nil {
		return 0, wrapQueryErr("failed to insert restore", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get restore ID: %w", err)
	}

	return id, nil
}

// ListRestores returns all restores newest first.
func (s *Store) ListRestores() ([]*Restore, error) {
	query := `
		SELECT id, original_path, source_path, restored_at
		FROM restores
		ORDER BY restored_at DESC, id DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapQueryErr("failed to list restores", err)
	}
	defer rows.Close()

	var restores []*Restore
	for rows.Next() {
		var r Restore
		var restoredAt string

		if err := rows.Scan(&r.ID, &r.OriginalPath, &r.SourcePath, &restoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan restore row: %w", err)
		}

		r.RestoredAt, err = parseTime(restoredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse restored_at for restore %d: %w", r.ID, err)
		}

		restores = append(restores, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restores: %w", err)
	}

	return restores, nil
}

// Run operations

// InsertRun records the start of a run.
func (s *Store) InsertRun(run *Run) error {
	query := `
		INSERT INTO runs (id, action, started_at, rebooted)
		VALUES (?, ?, ?, ?)
	`

	if _, err := s.db.Exec(query, run.ID, run.Action, formatTime(run.StartedAt), run.Rebooted); err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to insert run %s", run.ID), err)
	}

	return nil
}

// FinishRun stamps the end time and reboot decision of a run.
func (s *Store) FinishRun(id string, finishedAt time.Time, rebooted bool) error {
	query := `UPDATE runs SET finished_at = ?, rebooted = ? WHERE id = ?`

	result, err := s.db.Exec(query, formatTime(finishedAt), rebooted, id)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to finish run %s", id), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return nil
}

// InsertRunStep records the outcome of one step of a run.
func (s *Store) InsertRunStep(step *RunStep) error {
	query := `
		INSERT INTO run_steps (run_id, seq, name, status, detail)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := s.db.Exec(query, step.RunID, step.Seq, step.Name, step.Status, step.Detail); err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to insert step %s", step.Name), err)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	query := `
		SELECT id, action, started_at, finished_at, rebooted
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get run %s", id), err)
	}

	return run, nil
}

// ListRuns returns all runs newest first.
func (s *Store) ListRuns() ([]*Run, error) {
	query := `
		SELECT id, action, started_at, finished_at, rebooted
		FROM runs
		ORDER BY started_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapQueryErr("failed to list runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRunSteps returns the steps of a run in execution order.
func (s *Store) GetRunSteps(runID string) ([]*RunStep, error) {
	query := `
		SELECT run_id, seq, name, status, detail
		FROM run_steps
		WHERE run_id = ?
		ORDER BY seq
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, wrapQueryErr("failed to get run steps", err)
	}
	defer rows.Close()

	var steps []*RunStep
	for rows.Next() {
		var step RunStep
		var detail sql.NullString

		if err := rows.Scan(&step.RunID, &step.Seq, &step.Name, &step.Status, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan run step row: %w", err)
		}
		step.Detail = detail.String

		steps = append(steps, &step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run steps: %w", err)
	}

	return steps, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString

	if err := row.Scan(&run.ID, &run.Action, &startedAt, &finishedAt, &run.Rebooted); err != nil {
		return nil, err
	}

	var err error
	run.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %s: %w", run.ID, err)
	}

	if finishedAt.Valid && finishedAt.String != "" {
		run.FinishedAt, err = parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at for run %s: %w", run.ID, err)
		}
	}

	return &run, nil
}
