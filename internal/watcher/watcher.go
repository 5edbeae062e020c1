package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/debtune/internal/backup"
	"github.com/blackwell-systems/debtune/internal/config"
	"github.com/blackwell-systems/debtune/internal/logging"
)

// DefaultDebounce collapses the events of one save into a single change.
// Since backup names have one-second resolution, a shorter interval could
// make consecutive backups of a target overwrite each other.
const DefaultDebounce = time.Second

// Event is a change to a managed target file.
type Event struct {
	Target config.Target
	Op     fsnotify.Op
	Time   time.Time

	// Backup is set when backup-on-change is enabled and a backup was
	// attempted for this event.
	Backup *backup.Result
}

// Watcher watches the managed target files for changes.
type Watcher struct {
	fsw     *fsnotify.Watcher
	targets map[string]config.Target
	dirs    map[string]bool
	logger  *log.Logger

	mu       sync.Mutex
	debounce time.Duration
	backups  *backup.Manager
}

// New creates a Watcher for targets. Targets whose parent directory does not
// exist are skipped with a warning; it is an error if none can be watched.
func New(targets []config.Target, logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		targets:  buildTargetMap(targets),
		dirs:     make(map[string]bool),
		logger:   logging.OrDiscard(logger).WithPrefix("watcher"),
		debounce: DefaultDebounce,
	}

	for _, t := range targets {
		dir := filepath.Dir(filepath.Clean(t.Path))
		if w.dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("cannot watch target directory", "target", t.Name, "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
	}

	if len(w.dirs) == 0 {
		fsw.Close()
		return nil, errors.New("none of the target directories can be watched")
	}

	return w, nil
}

// SetBackupOnChange makes the watcher back up a target each time it changes.
// Passing nil disables it.
func (w *Watcher) SetBackupOnChange(m *backup.Manager) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.backups = m
}

// SetDebounce sets how long a target's events must be quiet before the
// change is reported. Zero reports every event immediately.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string {
	dirs := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	return dirs
}

// Run starts the event loop. It blocks until ctx is cancelled or the
// watcher is closed. onChange is called once per target after its events
// have been quiet for the debounce interval.
func (w *Watcher) Run(ctx context.Context, onChange func(Event)) error {
	pending := make(map[string]*pendingChange)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	// schedule arms the timer for the earliest pending deadline.
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timerC = nil, nil

		var next time.Time
		for _, p := range pending {
			if next.IsZero() || p.deadline.Before(next) {
				next = p.deadline
			}
		}
		if !next.IsZero() {
			timer = time.NewTimer(time.Until(next))
			timerC = timer.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			target, ok := w.filter(event)
			if !ok {
				continue
			}

			debounce := w.debounceInterval()
			if debounce <= 0 {
				w.emit(Event{Target: target, Op: event.Op, Time: time.Now()}, onChange)
				continue
			}

			p, seen := pending[target.Path]
			if !seen {
				p = &pendingChange{target: target}
				pending[target.Path] = p
			}
			p.op |= event.Op
			p.deadline = time.Now().Add(debounce)
			schedule()

		case <-timerC:
			now := time.Now()
			for path, p := range pending {
				if p.deadline.After(now) {
					continue
				}
				delete(pending, path)
				w.emit(Event{Target: p.target, Op: p.op, Time: now}, onChange)
			}
			schedule()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

type pendingChange struct {
	target   config.Target
	op       fsnotify.Op
	deadline time.Time
}

func (w *Watcher) debounceInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.debounce
}

// filter maps an fsnotify event to the target it touches.
func (w *Watcher) filter(event fsnotify.Event) (config.Target, bool) {
	// Permission changes do not alter content.
	if event.Op == fsnotify.Chmod {
		return config.Target{}, false
	}
	return w.MatchTarget(event.Name)
}

// emit reports a settled change, backing the target up first when
// backup-on-change is enabled and the file still exists.
func (w *Watcher) emit(ev Event, onChange func(Event)) {
	w.logger.Info("Target changed", "target", ev.Target.Name, "path", ev.Target.Path, "op", ev.Op.String())

	w.mu.Lock()
	backups := w.backups
	w.mu.Unlock()

	if backups != nil {
		if _, err := os.Stat(ev.Target.Path); err == nil {
			res := backups.Backup(ev.Target.Path)
			ev.Backup = &res
		}
	}

	if onChange != nil {
		onChange(ev)
	}
}
