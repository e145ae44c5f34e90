package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sugarstreak/sugarstreak/internal/daemon"
)

func init() {
	rootCmd.AddCommand(completeCmd)
}

var completeCmd = &cobra.Command{
	Use:   "complete EVENT_ID",
	Short: "Mark the corrective action of an event as done and earn XP",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(log)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Tracker.CompleteAction(cmd.Context(), args[0], time.Now())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
