package watcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
)

// DaemonChildFlag is passed to the re-executed binary so it runs the watch
// loop in the foreground of its own session.
const DaemonChildFlag = "--daemon-child"

// StartDaemon re-executes the current binary as "watch <args> --daemon-child"
// in a new session, writes its PID to pidFile and sends its output to
// logFile.
func StartDaemon(pidFile, logFile string, args []string) error {
	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running (PID file: %s)", pidFile)
	}

	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logF.Close()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	childArgs := append([]string{"watch"}, args...)
	childArgs = append(childArgs, DaemonChildFlag)

	cmd := exec.Command(executable, childArgs...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	if err := writePID(pidFile, cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return err
	}

	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release process: %w", err)
	}

	return nil
}

// RunDaemon runs fn in the daemon child until SIGTERM or SIGINT, then
// removes pidFile.
func RunDaemon(ctx context.Context, pidFile string, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// The parent normally writes the PID file; write it again in case the
	// child was started by hand.
	if err := writePID(pidFile, os.Getpid()); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "watcher: failed to remove PID file: %v\n", err)
		}
	}()

	return fn(ctx)
}

// StopDaemon sends SIGTERM to the daemon recorded in pidFile.
func StopDaemon(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("daemon not running (PID file not found)")
		}
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process %d: %w", pid, err)
	}

	return nil
}

// IsDaemonRunning reports whether the process recorded in pidFile is alive.
// A stale PID file is removed.
func IsDaemonRunning(pidFile string) (bool, error) {
	pid, err := readPID(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		if _, ok := err.(*strconv.NumError); ok {
			return false, nil
		}
		return false, err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	// Signal 0 checks for existence without delivering anything.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		os.Remove(pidFile)
		return false, nil
	}

	return true, nil
}

func writePID(pidFile string, pid int) error {
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// readPID returns the PID stored in pidFile. Errors from os.ReadFile are
// returned unwrapped so os.IsNotExist works on them; a malformed file yields
// a *strconv.NumError.
func readPID(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
