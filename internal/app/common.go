package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/backup"
	"github.com/blackwell-systems/debtune/internal/config"
	"github.com/blackwell-systems/debtune/internal/editors"
	"github.com/blackwell-systems/debtune/internal/logging"
	"github.com/blackwell-systems/debtune/internal/runner"
	"github.com/blackwell-systems/debtune/internal/store"
	"github.com/blackwell-systems/debtune/internal/tuner"
)

// environment holds everything a command needs, built from configuration.
type environment struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *store.Store // nil when the ledger could not be opened
	backups *backup.Manager
	runner  *runner.Shell
	editor  *editors.Editor
	tuner   *tuner.Tuner

	closers []io.Closer
}

// loadConfig reads configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// newEnvironment wires config, logger, ledger, backup manager, runner,
// editors and tuner for cmd. A ledger that cannot be opened is reported and
// skipped; backups and edits never depend on it.
func newEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Path:   cfg.Logging.Path,
		Output: cmd.OutOrStdout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	env := &environment{
		cfg:     cfg,
		logger:  logger,
		closers: []io.Closer{logCloser},
	}

	st, err := openLedger(cfg.DBPath)
	if err != nil {
		logger.Warn("history ledger unavailable, continuing without it", "path", cfg.DBPath, "error", err)
	} else {
		env.store = st
		env.closers = append(env.closers, st)
	}

	env.backups = backup.New(env.store, cfg.BackupDir, logger)

	env.runner = runner.NewShell(cfg.Shell, logger)
	env.runner.Stdout = cmd.OutOrStdout()
	env.runner.Stdin = cmd.InOrStdin()

	env.editor = editors.New(env.backups, env.runner, logger, editors.Options{
		AtomicWrites:  cfg.AtomicWrites,
		RequireBackup: cfg.RequireBackup,
	})
	env.tuner = tuner.New(cfg, env.backups, env.editor, env.runner, env.store, logger)

	return env, nil
}

// Close releases the ledger and log file.
func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close()
	}
}

// openLedger opens the history database at path, creating its directory
// and schema as needed.
func openLedger(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return st, nil
}

// prompter reads answers line by line from the command's stdin. One
// prompter must serve a whole invocation so buffered input is not lost
// between questions.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in:  bufio.NewReader(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}
}

// Ask prints prompt and returns the trimmed, lower-cased answer. End of
// input yields whatever was read, usually "".
func (p *prompter) Ask(prompt string) string {
	fmt.Fprint(p.out, prompt)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
	}
	return strings.ToLower(strings.TrimSpace(line))
}

// Confirm implements tuner.Confirmer: only "y" is a yes.
func (p *prompter) Confirm(prompt string) bool {
	return p.Ask(prompt) == "y"
}
