package cli

import (
	"github.com/spf13/cobra"

	"github.com/sugarstreak/sugarstreak/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sugarstreak API server",
	Long:  `Start the HTTP API at localhost:8787 along with cache purge and health jobs.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}

	// Override config from flags
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}

	d, err := daemon.NewWithConfig(cfg, log)
	if err != nil {
		return err
	}
	d.Server.SetVersion(rootCmd.Version)
	return d.Serve(cmd.Context())
}
