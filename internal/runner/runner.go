// Package runner executes shell command strings on behalf of the tuner.
//
// Commands are best effort: a failing command is reported and turned into a
// false return value, never a panic or an abort of the calling sequence.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/debtune/internal/logging"
)

// DefaultShell is the interpreter used for command strings.
const DefaultShell = "/bin/sh"

// Runner runs a shell command and reports whether it succeeded.
type Runner interface {
	Run(command string) bool
}

// CommandError describes a command that could not be started or exited
// non-zero.
type CommandError struct {
	Command  string
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command %q failed (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("command %q failed (exit %d): %v", e.Command, e.ExitCode, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Shell runs commands through "<Path> -c". The child's stdout and stdin are
// passed through; stderr is captured so it can be reported on failure.
type Shell struct {
	Path   string
	Stdout io.Writer
	Stdin  io.Reader
	logger *log.Logger
}

// NewShell creates a Shell using shellPath, or DefaultShell when empty.
func NewShell(shellPath string, logger *log.Logger) *Shell {
	if shellPath == "" {
		shellPath = DefaultShell
	}
	return &Shell{
		Path:   shellPath,
		Stdout: os.Stdout,
		Stdin:  os.Stdin,
		logger: logging.OrDiscard(logger).WithPrefix("runner"),
	}
}

// Exec runs command and blocks until it exits. A non-zero exit is returned
// as a *CommandError carrying the captured stderr.
func (s *Shell) Exec(command string) error {
	var stderr bytes.Buffer

	cmd := exec.Command(s.Path, "-c", command)
	cmd.Stdout = s.Stdout
	cmd.Stdin = s.Stdin
	cmd.Stderr = &stderr

	s.logger.Debug("running command", "command", command)

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Command:  command,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return cmdErr
	}

	return nil
}

// Run executes command, logging the failure and its stderr when it does not
// succeed.
func (s *Shell) Run(command string) bool {
	err := s.Exec(command)
	if err == nil {
		return true
	}

	s.logger.Error(fmt.Sprintf("Command failed: %s", command))
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
		s.logger.Error(fmt.Sprintf("Error: %s", cmdErr.Stderr))
	} else {
		s.logger.Error(fmt.Sprintf("Error: %v", err))
	}
	return false
}
