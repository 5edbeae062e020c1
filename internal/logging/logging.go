// Package logging builds the charmbracelet/log loggers used across debtune.
//
// Every component receives a *log.Logger from its caller. Output is
// human-readable text on stdout, optionally mirrored to a log file:
//
//	logger, closer, err := logging.New(logging.Config{Level: "info"})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//
//	logger.WithPrefix("backup").Info("backup created", "path", "/etc/default/grub")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// Config configures a logger.
type Config struct {
	// Level is the minimum level (debug, info, warn, error). Empty means info.
	Level string

	// Path mirrors output to a file when set. The file is appended to.
	Path string

	// Output is the console writer. Nil means os.Stdout.
	Output io.Writer
}

// ParseLevel parses a string into a log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger from cfg. The returned closer releases the log file,
// if one was opened.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(out, f)
		closer = f
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: level == log.DebugLevel,
	})

	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
