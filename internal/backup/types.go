package backup

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/debtune/internal/logging"
	"github.com/blackwell-systems/debtune/internal/store"
)

// TimestampLayout is the zero-padded layout embedded in backup file names.
// Lexicographic order of names equals chronological order because of it.
const TimestampLayout = "20060102_150405"

// Suffix ends every backup file name.
const Suffix = ".bak"

// ErrNoBackup is returned when no backup exists for a path.
var ErrNoBackup = errors.New("no backup found")

// Outcome classifies the result of a backup or restore.
type Outcome int

const (
	// NotFound means there was nothing to do: the source file (for a
	// backup) or any matching backup (for a restore) does not exist.
	NotFound Outcome = iota
	// OK means the file was copied.
	OK
	// Failed means an I/O error stopped the copy.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "not-found"
	case OK:
		return "ok"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Record identifies one backup file. It is never persisted as structured
// data by the manager; everything is encoded in the file name.
type Record struct {
	Original  string
	Timestamp time.Time // zero when the name carries no parseable timestamp
	Stored    string
}

// Result is returned by Backup and Restore.
type Result struct {
	Outcome Outcome
	Record  Record
	Err     error
}

// Manager writes timestamped copies of files into a single flat directory
// and restores the newest copy on request.
type Manager struct {
	store     *store.Store
	backupDir string
	logger    *log.Logger
	now       func() time.Time
}

// New creates a Manager. st may be nil, in which case nothing is written to
// the history ledger.
func New(st *store.Store, backupDir string, logger *log.Logger) *Manager {
	return &Manager{
		store:     st,
		backupDir: backupDir,
		logger:    logging.OrDiscard(logger).WithPrefix("backup"),
		now:       time.Now,
	}
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.backupDir
}

// SetClock replaces the time source used for backup timestamps.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}
