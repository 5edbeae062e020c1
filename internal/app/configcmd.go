package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/debtune/internal/config"
)

var (
	configInitPath string

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show or create the debtune configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration debtune would use, after merging the config file,
DEBTUNE_* environment variables and built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the built-in defaults",
		Long: `Write the built-in defaults to a config file so they can be edited.
An existing file is left untouched.`,
		Example: `  # Per-user config
  debtune config init

  # System-wide config
  sudo debtune config init --path /etc/debtune/config.yaml`,
		Args: cobra.NoArgs,
		RunE: runConfigInit,
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}
)

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "where to write the file (default: $XDG_CONFIG_HOME/debtune/config.yaml)")

	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd)
	RootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := cfg.YAML()
	if err != nil {
		return err
	}

	if cfg.File != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", cfg.File)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "# built-in defaults")
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configInitPath
	if path == "" {
		path = filepath.Join(config.Dir(), "config.yaml")
	}

	written, err := config.WriteDefault(path)
	if err != nil {
		return err
	}

	if !written {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists: %s\n", path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.File == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No config file found; using built-in defaults.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfg.File)
	return nil
}
