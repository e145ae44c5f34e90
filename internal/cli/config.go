package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sugarstreak/sugarstreak/internal/daemon"
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the sugarstreak config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := daemon.ConfigPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := daemon.SaveConfig(daemon.DefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daemon.LoadConfig()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cfg)
	},
}
