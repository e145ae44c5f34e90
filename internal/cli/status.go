package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sugarstreak/sugarstreak/internal/daemon"
)

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw state as JSON")
	rootCmd.AddCommand(statusCmd)
}

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status USER_ID",
	Short: "Show streak, level and XP for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(log)
	if err != nil {
		return err
	}
	defer d.Close()

	st, err := d.Tracker.State(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if statusJSON {
		return printJSON(cmd.OutOrStdout(), st)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "User:\t%s\n", st.UserID)
	fmt.Fprintf(w, "Level:\t%d (%.0f%%, %d XP to next)\n", st.Level, st.ProgressPct, st.XPToNextLevel)
	fmt.Fprintf(w, "XP:\t%d\n", st.XP)
	fmt.Fprintf(w, "Streak:\t%d days (longest %d)\n", st.CurrentStreak, st.LongestStreak)
	fmt.Fprintf(w, "Events:\t%d\n", st.TotalEvents)
	fmt.Fprintf(w, "Milestones:\t%v\n", st.UnlockedMilestones.Days())
	if st.LastEventDate != nil {
		fmt.Fprintf(w, "Last event:\t%s\n", st.LastEventDate.Format("2006-01-02"))
	}
	return w.Flush()
}
