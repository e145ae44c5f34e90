// Package cli implements the sugarstreak command-line interface using Cobra.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sugarstreak/sugarstreak/internal/daemon"
	"github.com/sugarstreak/sugarstreak/internal/logger"
)

var (
	envFile string
	log     = logger.Nop()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
}

var rootCmd = &cobra.Command{
	Use:   "sugarstreak",
	Short: "sugarstreak tracks sugar intake with streaks, XP and insights",
	Long: `sugarstreak records sugar intake events and turns them into a
daily streak, XP for completed corrective actions, milestone achievements
and context-aware insights.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// setup loads the dotenv file and builds the process logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	l, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return err
	}
	log = l
	return nil
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version
	defer func() { log.Sync() }()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		log.Sync()
		os.Exit(1)
	}
}
