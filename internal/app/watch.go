package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/backup"
	"github.com/blackwell-systems/debtune/internal/config"
	"github.com/blackwell-systems/debtune/internal/watcher"
)

var (
	watchDaemon         bool
	watchDaemonChild    bool
	watchPIDFile        string
	watchLogFile        string
	watchStop           bool
	watchBackupOnChange bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch the managed files for changes made outside debtune",
		Long: `Watch the GRUB, swappiness and Wi-Fi power-save files and report every
change made to them, for example by a package upgrade or a hand edit.

With --backup-on-change each settled change is also backed up into the
backup directory, so "debtune restore" can return to it later.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as background process
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  sudo debtune watch

  # Run as background daemon and back up every change
  sudo debtune watch --daemon --backup-on-change

  # Stop running daemon
  sudo debtune watch --stop`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: $XDG_STATE_HOME/debtune/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: $XDG_STATE_HOME/debtune/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().BoolVar(&watchBackupOnChange, "backup-on-change", false, "back up each target after it changes")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := resolveWatchPaths(); err != nil {
		return err
	}

	if watchStop {
		return stopWatchDaemon(cmd)
	}

	if watchDaemon {
		return startWatchDaemon(cmd)
	}

	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	w, err := watcher.New(env.cfg.Targets.All(), env.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if watchBackupOnChange {
		w.SetBackupOnChange(env.backups)
	}

	if watchDaemonChild {
		// stdout and stderr already point at the log file
		return watcher.RunDaemon(cmd.Context(), watchPIDFile, func(ctx context.Context) error {
			return w.Run(ctx, nil)
		})
	}

	return runWatchForeground(cmd, w)
}

// resolveWatchPaths fills in default PID and log paths and makes sure their
// directories exist.
func resolveWatchPaths() error {
	if watchPIDFile == "" {
		watchPIDFile = filepath.Join(config.StateDir(), "watch.pid")
	}
	if watchLogFile == "" {
		watchLogFile = filepath.Join(config.StateDir(), "watch.log")
	}

	for _, dir := range []string{filepath.Dir(watchPIDFile), filepath.Dir(watchLogFile)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func stopWatchDaemon(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	fmt.Fprintln(out, "✓ Daemon stopped")

	return nil
}

func startWatchDaemon(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	// The child must see the same configuration and behaviour as this
	// process; pid and log paths are passed explicitly so --stop finds them.
	var childArgs []string
	if configFile != "" {
		abs, err := filepath.Abs(configFile)
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
		childArgs = append(childArgs, "--config", abs)
	}
	if logLevel != "" {
		childArgs = append(childArgs, "--log-level", logLevel)
	}
	if watchBackupOnChange {
		childArgs = append(childArgs, "--backup-on-change")
	}
	childArgs = append(childArgs, "--pid-file", watchPIDFile, "--log-file", watchLogFile)

	if err := watcher.StartDaemon(watchPIDFile, watchLogFile, childArgs); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Fprintln(out, "✓ Daemon started")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Drift watcher started")
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "\nTo stop: debtune watch --stop\n")

	return nil
}

func runWatchForeground(cmd *cobra.Command, w *watcher.Watcher) error {
	out := cmd.OutOrStdout()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	fmt.Fprintln(out, "Watching for changes (press Ctrl+C to stop):")
	for _, dir := range w.Dirs() {
		fmt.Fprintf(out, "  %s\n", dir)
	}
	fmt.Fprintln(out)

	err := w.Run(ctx, func(ev watcher.Event) {
		line := fmt.Sprintf("%s %s changed (%s)", ev.Time.Format("15:04:05"), ev.Target.Name, ev.Op)
		if ev.Backup != nil && ev.Backup.Outcome == backup.OK {
			line += ", backed up to " + ev.Backup.Record.Stored
		}
		fmt.Fprintln(out, line)
	})
	if err != nil {
		return fmt.Errorf("watcher stopped: %w", err)
	}

	fmt.Fprintln(out, "Watcher stopped")
	return nil
}
