package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/output"
)

var restoreFlagList bool

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the managed files from their newest backups",
	Long: `Restore each managed configuration file from its newest backup.

The newest backup is the file in the backup directory whose name starts with
the target's file name and sorts last. Targets without a backup are left
unchanged.`,
	Example: `  debtune restore --list   # List available backups
  sudo debtune restore     # Restore every target`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreFlagList, "list", false, "List available backups instead of restoring")

	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()

	if restoreFlagList {
		fmt.Fprintf(out, "Backups in %s:\n\n", env.backups.Dir())
		for i, target := range env.cfg.Targets.All() {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, output.RenderRecordTable(target.Path, env.backups.List(target.Path)))
		}
		return nil
	}

	results := env.tuner.RestoreAll()

	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderResults(results))
	return nil
}
