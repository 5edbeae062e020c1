package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/debtune/internal/store"
)

// Restore copies the newest backup of path over path, overwriting whatever
// is there. A missing or unreadable backup directory counts as "no backup
// found", not as an error.
func (m *Manager) Restore(path string) Result {
	name, err := m.Latest(path)
	if err != nil {
		m.logger.Info(fmt.Sprintf("No backup found for %s.", path))
		return Result{Outcome: NotFound, Record: Record{Original: path}, Err: err}
	}

	source := filepath.Join(m.backupDir, name)
	record := recordFor(path, source)

	if _, err := copyFile(source, path); err != nil {
		m.logger.Error(fmt.Sprintf("Failed to restore %s: %v", path, err))
		return Result{Outcome: Failed, Record: record, Err: err}
	}

	m.logger.Info(fmt.Sprintf("Restored %s from %s.", path, source))

	if m.store != nil {
		if _, err := m.store.InsertRestore(&store.Restore{
			OriginalPath: path,
			SourcePath:   source,
			RestoredAt:   m.now(),
		}); err != nil {
			m.logger.Warn("failed to record restore in history", "error", err)
		}
	}

	return Result{Outcome: OK, Record: record}
}

// Latest returns the file name of the newest backup of path: the
// lexicographically greatest entry starting with "<basename>.". It returns
// ErrNoBackup when there is none or the directory cannot be read.
func (m *Manager) Latest(path string) (string, error) {
	names := m.matching(path)
	if len(names) == 0 {
		return "", ErrNoBackup
	}

	latest := names[0]
	for _, name := range names[1:] {
		if name > latest {
			latest = name
		}
	}
	return latest, nil
}

// List returns every backup of path, newest first.
func (m *Manager) List(path string) []Record {
	names := m.matching(path)
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	records := make([]Record, 0, len(names))
	for _, name := range names {
		records = append(records, recordFor(path, filepath.Join(m.backupDir, name)))
	}
	return records
}

// matching lists backup directory entries belonging to path.
func (m *Manager) matching(path string) []string {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		m.logger.Debug("backup directory not readable", "dir", m.backupDir, "error", err)
		return nil
	}

	prefix := filepath.Base(path) + "."

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	return names
}

func recordFor(original, stored string) Record {
	rec := Record{Original: original, Stored: stored}

	name := strings.TrimPrefix(filepath.Base(stored), filepath.Base(original)+".")
	name = strings.TrimSuffix(name, Suffix)
	if ts, err := parseTimestamp(name); err == nil {
		rec.Timestamp = ts
	}
	return rec
}

func parseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
