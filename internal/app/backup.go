package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/output"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the managed configuration files",
	Long: `Copy the GRUB defaults file, the swappiness sysctl drop-in and the
NetworkManager Wi-Fi power-save drop-in into the backup directory as
<name>.<YYYYMMDD_HHMMSS>.bak.

Files that do not exist are skipped. Backups are never deleted.`,
	Example: `  sudo debtune backup
  sudo debtune backup --config ./debtune.yaml`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	RootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	results := env.tuner.BackupAll()

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), output.RenderResults(results))
	return nil
}
