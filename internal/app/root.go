package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/output"
)

// MenuPrompt is shown when debtune runs without a subcommand.
const MenuPrompt = "Would you like to (b)ackup current settings, (r)estore from backup, or (o)ptimize the system? (b/r/o): "

var (
	configFile string
	logLevel   string

	// RootCmd is the root command for debtune
	RootCmd = &cobra.Command{
		Use:   "debtune",
		Short: "Tune a Debian desktop and keep backups of what it changes",
		Long: `debtune applies a fixed set of performance tweaks to a Debian system and
keeps timestamped backups of every configuration file it rewrites.

Run without a subcommand for the interactive menu:
  (b) back up the GRUB, swappiness and Wi-Fi power-save files
  (r) restore each of them from its newest backup
  (o) optimize: update packages, install preload and cpufrequtils, set the
      CPU governor, reload the Wi-Fi driver, disable Wi-Fi power saving,
      lower swappiness, edit the GRUB command line, install firmware

Most operations need root.

Examples:
  # Interactive menu
  sudo debtune

  # Back up the managed files
  sudo debtune backup

  # See which backups exist
  debtune restore --list

  # Show the history of optimize runs
  debtune history --runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMenu,
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: /etc/debtune/config.yaml, then $XDG_CONFIG_HOME/debtune/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// runMenu asks for one of b, r or o and runs it. Any other answer prints
// "Invalid choice." and ends the run successfully.
func runMenu(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	p := newPrompter(cmd)
	out := cmd.OutOrStdout()

	switch p.Ask(MenuPrompt) {
	case "b":
		env.tuner.BackupAll()
	case "r":
		env.tuner.RestoreAll()
	case "o":
		report := env.tuner.Optimize(p)
		fmt.Fprint(out, output.RenderReport(report))
	default:
		fmt.Fprintln(out, "Invalid choice.")
	}

	return nil
}
