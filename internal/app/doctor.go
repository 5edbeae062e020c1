package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/config"
	"github.com/blackwell-systems/debtune/internal/output"
	"github.com/blackwell-systems/debtune/internal/system"
	"github.com/blackwell-systems/debtune/internal/watcher"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues before running debtune",
	Long: `Runs diagnostic checks without changing anything.

Checks:
  • Running as root
  • Required tools on PATH (apt, modprobe, systemctl, sysctl, update-grub, ...)
  • Backup directory is writable
  • Managed target files are present
  • History ledger is accessible
  • Drift watcher daemon status`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

// diagnosis counts issues by severity.
type diagnosis struct {
	out      io.Writer
	critical int
	warnings int
}

func (d *diagnosis) pass(format string, args ...any) {
	fmt.Fprintf(d.out, "%s %s\n", output.Colorize(output.SuccessStyle, "✓"), fmt.Sprintf(format, args...))
}

func (d *diagnosis) warn(format string, args ...any) {
	d.warnings++
	fmt.Fprintf(d.out, "%s %s\n", output.Colorize(output.WarningStyle, "⚠"), fmt.Sprintf(format, args...))
}

func (d *diagnosis) fail(format string, args ...any) {
	d.critical++
	fmt.Fprintf(d.out, "%s %s\n", output.Colorize(output.ErrorStyle, "✗"), fmt.Sprintf(format, args...))
}

func (d *diagnosis) action(format string, args ...any) {
	fmt.Fprintf(d.out, "  Action: %s\n", fmt.Sprintf(format, args...))
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Running debtune diagnostics...")
	fmt.Fprintln(out)

	d := &diagnosis{out: out}

	cfg, err := loadConfig()
	if err != nil {
		d.fail("Configuration: %v", err)
		fmt.Fprintln(out)
		return fmt.Errorf("diagnostics failed")
	}
	if cfg.File != "" {
		d.pass("Configuration loaded: %s", cfg.File)
	} else {
		d.pass("Configuration: built-in defaults")
	}

	// Check 1: root — warning only, read-only commands work without it
	if system.IsRoot() {
		d.pass("Running as root")
	} else {
		d.warn("Not running as root")
		d.action("Run backup, restore and optimize with sudo")
	}

	// Check 2: tools — update-grub and cpufreq-set missing only degrade one step
	for _, status := range system.ProbeTools(system.RequiredTools) {
		switch {
		case status.Found:
			d.pass("%s found: %s", status.Name, status.Path)
		case status.Name == "apt" || status.Name == "sysctl":
			d.fail("%s not found (%s)", status.Name, status.Purpose)
		default:
			d.warn("%s not found (%s)", status.Name, status.Purpose)
		}
	}

	// Check 3: backup directory
	checkBackupDir(d, cfg.BackupDir)

	// Check 4: targets — absence is normal for the two drop-ins
	for _, target := range cfg.Targets.All() {
		if _, err := os.Stat(target.Path); err == nil {
			d.pass("%s present: %s", target.Name, target.Path)
		} else if errors.Is(err, os.ErrNotExist) {
			if target.Name == config.TargetGrub {
				d.warn("%s missing: %s (the GRUB step will fail)", target.Name, target.Path)
			} else {
				d.pass("%s not present yet: %s (will be created)", target.Name, target.Path)
			}
		} else {
			d.fail("%s not accessible: %v", target.Name, err)
		}
	}

	// Check 5: ledger — warning only, debtune works without it
	if st, err := openLedger(cfg.DBPath); err != nil {
		d.warn("History ledger unavailable: %v", err)
	} else {
		st.Close()
		d.pass("History ledger accessible: %s", cfg.DBPath)
	}

	// Check 6: watcher daemon — informational
	pidFile := filepath.Join(config.StateDir(), "watch.pid")
	if running, err := watcher.IsDaemonRunning(pidFile); err == nil && running {
		d.pass("Drift watcher running (PID file %s)", pidFile)
	} else {
		fmt.Fprintf(out, "- Drift watcher not running\n")
	}

	fmt.Fprintln(out)
	if d.critical == 0 && d.warnings == 0 {
		fmt.Fprintln(out, "✓ All checks passed!")
		return nil
	}

	if d.critical > 0 {
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", d.critical, d.warnings)
		return fmt.Errorf("diagnostics failed")
	}

	fmt.Fprintf(out, "Found %d warning(s). debtune will run but some steps may fail.\n", d.warnings)
	return nil
}

// checkBackupDir verifies that the backup directory, or the nearest
// existing parent it would be created in, accepts new files.
func checkBackupDir(d *diagnosis, dir string) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		d.fail("Backup path is not a directory: %s", dir)
		return
	case err == nil:
		if canWrite(dir) {
			d.pass("Backup directory writable: %s", dir)
		} else {
			d.warn("Backup directory not writable: %s", dir)
			d.action("Run debtune as root")
		}
		return
	case !errors.Is(err, os.ErrNotExist):
		d.fail("Backup directory not accessible: %v", err)
		return
	}

	parent := filepath.Dir(dir)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}

	if canWrite(parent) {
		d.pass("Backup directory will be created on first backup: %s", dir)
	} else {
		d.warn("Backup directory cannot be created under %s", parent)
		d.action("Run debtune as root")
	}
}

func canWrite(dir string) bool {
	f, err := os.CreateTemp(dir, ".debtune-doctor-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
