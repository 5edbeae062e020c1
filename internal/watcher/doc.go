// Package watcher reports drift in the configuration files debtune manages.
//
// Package managers, desktop tools and administrators rewrite GRUB, sysctl
// and NetworkManager files behind debtune's back. The Watcher subscribes to
// inotify events on each target's parent directory and reports changes to
// the target files only. Optionally every change is captured with a fresh
// backup so a later restore can return to it.
//
// Key features:
//   - fsnotify on parent directories, so targets created or replaced by
//     rename are still seen
//   - Per-target debounce of bursts of events from a single save
//   - Optional backup-on-change through backup.Manager
//   - Daemon mode with PID file management and SIGTERM/SIGINT shutdown
//
// Example usage:
//
//	w, err := watcher.New(cfg.Targets.All(), logger)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//
//	w.SetBackupOnChange(backups)
//	err = w.Run(ctx, func(ev watcher.Event) {
//		fmt.Println(ev.Target.Name, ev.Op)
//	})
package watcher
