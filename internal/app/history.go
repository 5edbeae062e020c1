package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/output"
	"github.com/blackwell-systems/debtune/internal/store"
)

var (
	historyFlagRuns bool
	historyFlagRun  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded backups, restores and runs",
	Long: `Show the history ledger: every backup and restore debtune performed and
every backup, restore and optimize run with its steps.

The ledger is an audit log only. Restore always selects backups from the
backup directory itself.`,
	Example: `  debtune history                 # Backups and restores
  debtune history --runs          # All runs
  debtune history --run 3f2a9c1e  # Steps of one run (ID prefix allowed)`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyFlagRuns, "runs", false, "List runs instead of backups and restores")
	historyCmd.Flags().StringVar(&historyFlagRun, "run", "", "Show the steps of one run")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No history recorded yet.")
		return nil
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	err = showHistory(out, st)
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Fprintln(out, "No history recorded yet.")
		return nil
	}
	return err
}

func showHistory(out io.Writer, st *store.Store) error {
	if historyFlagRun != "" {
		return showRun(out, st, historyFlagRun)
	}

	if historyFlagRuns {
		runs, err := st.ListRuns()
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		fmt.Fprint(out, output.RenderRunTable(runs))
		if len(runs) > 0 {
			fmt.Fprintf(out, "\nShow steps with: debtune history --run <id>\n")
		}
		return nil
	}

	backups, err := st.ListBackups("")
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	restores, err := st.ListRestores()
	if err != nil {
		return fmt.Errorf("failed to list restores: %w", err)
	}

	fmt.Fprintln(out, output.Colorize(output.TitleStyle, "Backups"))
	fmt.Fprint(out, output.RenderBackupTable(backups))
	fmt.Fprintln(out)
	fmt.Fprintln(out, output.Colorize(output.TitleStyle, "Restores"))
	fmt.Fprint(out, output.RenderRestoreTable(restores))
	return nil
}

// showRun prints one run and its steps. id may be a unique prefix.
func showRun(out io.Writer, st *store.Store, id string) error {
	runs, err := st.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	var match *store.Run
	for _, r := range runs {
		if r.ID == id {
			match = r
			break
		}
		if strings.HasPrefix(r.ID, id) {
			if match != nil {
				return fmt.Errorf("run ID %q is ambiguous", id)
			}
			match = r
		}
	}
	if match == nil {
		return fmt.Errorf("run %s not found\n\nRun 'debtune history --runs' to see recorded runs", id)
	}

	steps, err := st.GetRunSteps(match.ID)
	if err != nil {
		return fmt.Errorf("failed to get run steps: %w", err)
	}

	fmt.Fprintf(out, "\nRun Details:\n")
	fmt.Fprintf(out, "  ID: %s\n", match.ID)
	fmt.Fprintf(out, "  Action: %s\n", match.Action)
	fmt.Fprintf(out, "  Started: %s\n", match.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !match.FinishedAt.IsZero() {
		fmt.Fprintf(out, "  Finished: %s\n", match.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(out, "  Finished: never (interrupted)\n")
	}
	fmt.Fprintf(out, "  Rebooted: %t\n", match.Rebooted)
	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderStepTable(steps))

	return nil
}
