package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/output"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Apply every tuning step, then offer to reboot",
	Long: `Run the optimize sequence:

  1. apt update && apt upgrade
  2. install preload
  3. install cpufrequtils and set the CPU governor (skipped if the install fails)
  4. install Wi-Fi firmware and reload the Wi-Fi module
  5. disable NetworkManager Wi-Fi power saving
  6. restart NetworkManager
  7. set vm.swappiness=10
  8. replace "quiet splash" on the GRUB command line and run update-grub
  9. install firmware and GPU driver packages

Every step is attempted even when an earlier one failed. Files are backed up
before they are rewritten. The run is recorded in the history ledger.`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

func init() {
	RootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	report := env.tuner.Optimize(newPrompter(cmd))

	fmt.Fprint(cmd.OutOrStdout(), output.RenderReport(report))
	return nil
}
