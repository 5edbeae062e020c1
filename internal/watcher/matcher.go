package watcher

import (
	"path/filepath"

	"github.com/blackwell-systems/debtune/internal/config"
)

// buildTargetMap indexes targets by cleaned path.
func buildTargetMap(targets []config.Target) map[string]config.Target {
	m := make(map[string]config.Target, len(targets))
	for _, t := range targets {
		m[filepath.Clean(t.Path)] = t
	}
	return m
}

// MatchTarget matches an event path to a watched target.
// Returns the target and true if found, a zero Target and false otherwise.
func (w *Watcher) MatchTarget(path string) (config.Target, bool) {
	path = filepath.Clean(path)

	// Direct match
	if t, ok := w.targets[path]; ok {
		return t, true
	}

	// A target's directory may be a symlink; compare resolved paths too.
	resolved, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return config.Target{}, false
	}
	resolved = filepath.Join(resolved, filepath.Base(path))
	for p, t := range w.targets {
		dir, err := filepath.EvalSymlinks(filepath.Dir(p))
		if err != nil {
			continue
		}
		if filepath.Join(dir, filepath.Base(p)) == resolved {
			return t, true
		}
	}

	return config.Target{}, false
}
