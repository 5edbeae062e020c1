// Package backup implements the copy-with-timestamp backup convention and
// the restore-by-lexicographic-max selector.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/debtune/internal/store"
)

// Name returns the backup file name for original taken at ts.
func Name(original string, ts string) string {
	return fmt.Sprintf("%s.%s%s", filepath.Base(original), ts, Suffix)
}

// Backup copies path into the backup directory as
// <basename>.<YYYYMMDD_HHMMSS>.bak. A missing path is a no-op. Failures are
// logged and reported through the Result; they never abort the caller.
//
// Two backups of the same file within one second share a name and the
// second overwrites the first.
func (m *Manager) Backup(path string) Result {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Info(fmt.Sprintf("No backup needed: %s does not exist.", path))
			return Result{Outcome: NotFound, Record: Record{Original: path}}
		}
		return m.backupFailed(path, "", err)
	}

	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return m.backupFailed(path, "", fmt.Errorf("failed to create backup directory: %w", err))
	}

	now := m.now()
	ts := now.Format(TimestampLayout)
	stored := filepath.Join(m.backupDir, Name(path, ts))

	size, err := copyFile(path, stored)
	if err != nil {
		return m.backupFailed(path, stored, err)
	}

	m.logger.Info(fmt.Sprintf("Backup of %s created at %s.", path, stored))

	if m.store != nil {
		if _, err := m.store.InsertBackup(&store.Backup{
			OriginalPath: path,
			StoredPath:   stored,
			SizeBytes:    size,
			CreatedAt:    now,
		}); err != nil {
			m.logger.Warn("failed to record backup in history", "error", err)
		}
	}

	// Re-parse so the record carries the one-second resolution of the name.
	parsed, _ := parseTimestamp(ts)
	return Result{
		Outcome: OK,
		Record:  Record{Original: path, Timestamp: parsed, Stored: stored},
	}
}

func (m *Manager) backupFailed(path, stored string, err error) Result {
	m.logger.Error(fmt.Sprintf("Failed to backup %s: %v", path, err))
	return Result{
		Outcome: Failed,
		Record:  Record{Original: path, Stored: stored},
		Err:     err,
	}
}

// copyFile copies src to dst, truncating dst, and applies src's permission
// bits to dst. It returns the number of bytes copied.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to close %s: %w", dst, err)
	}

	// OpenFile only applies the mode on creation.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return n, fmt.Errorf("failed to preserve permissions on %s: %w", dst, err)
	}

	return n, nil
}
