package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sugarstreak/sugarstreak/internal/daemon"
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of events to show")
	historyCmd.Flags().BoolVar(&historyXP, "xp", false, "Show the XP ledger instead of events")
	rootCmd.AddCommand(historyCmd)
}

var (
	historyLimit int
	historyXP    bool
)

var historyCmd = &cobra.Command{
	Use:     "history USER_ID",
	Aliases: []string{"ls"},
	Short:   "List recent events or XP awards for a user",
	Args:    cobra.ExactArgs(1),
	RunE:    runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(log)
	if err != nil {
		return err
	}
	defer d.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if historyXP {
		entries, err := d.Tracker.XPHistory(cmd.Context(), args[0], historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "WHEN\tEVENT\tXP\tBALANCE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t+%d\t%d\n", e.CreatedAt.Format("2006-01-02 15:04"), e.EventID, e.Amount, e.Balance)
		}
		return w.Flush()
	}

	events, err := d.Tracker.Events(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events logged yet. Run 'sugarstreak log' to get started.")
		return nil
	}
	fmt.Fprintln(w, "ID\tWHEN\tGRAMS\tRULE\tDONE")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%t\n",
			ev.ID,
			ev.OccurredAt.Format("2006-01-02 15:04"),
			ev.Amount,
			ev.InsightRule,
			ev.CorrectiveActionCompleted,
		)
	}
	return w.Flush()
}
