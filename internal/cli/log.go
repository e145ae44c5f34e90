package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sugarstreak/sugarstreak/internal/app/tracker"
	"github.com/sugarstreak/sugarstreak/internal/daemon"
	"github.com/sugarstreak/sugarstreak/internal/domain"
)

func init() {
	f := logCmd.Flags()
	f.StringVar(&logFlags.user, "user", "", "User ID")
	f.Float64Var(&logFlags.amount, "amount", 0, "Sugar amount in grams")
	f.StringVar(&logFlags.at, "at", "", "When it happened (RFC 3339, default now)")
	f.StringVar(&logFlags.timezone, "timezone", "", "IANA timezone for the user's calendar")
	f.IntVar(&logFlags.steps, "steps", 0, "Daily step count")
	f.Float64Var(&logFlags.sleep, "sleep", 0, "Hours slept last night")
	f.IntVar(&logFlags.heartRate, "heart-rate", 0, "Resting heart rate")
	f.Float64Var(&logFlags.bmi, "bmi", 0, "Body mass index")
	f.IntVar(&logFlags.weekly, "weekly-count", 0, "Intakes logged over the last 7 days")
	f.StringVar(&logFlags.activity, "activity", "", "Activity label (Low, Moderate, Active)")
	f.StringVar(&logFlags.recovery, "recovery", "", "Recovery label (NeedsRest, Stable)")
	f.StringVar(&logFlags.energy, "energy", "", "Energy label (Low, Stable, High)")
	_ = logCmd.MarkFlagRequired("user")
	_ = logCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(logCmd)
}

var logFlags struct {
	user, at, timezone         string
	amount, sleep, bmi         float64
	steps, heartRate, weekly   int
	activity, recovery, energy string
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a sugar intake event",
	Example: `  sugarstreak log --user alice --amount 12
  sugarstreak log --user alice --amount 30 --steps 2500 --sleep 5.5`,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	occurred := time.Now()
	if logFlags.at != "" {
		t, err := time.Parse(time.RFC3339, logFlags.at)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		occurred = t
	}

	f := cmd.Flags()
	req := tracker.LogRequest{
		Amount:     logFlags.amount,
		OccurredAt: occurred,
		Timezone:   logFlags.timezone,
		Signals: domain.RawSignals{
			Steps:            optInt(logFlags.steps, f.Changed("steps")),
			SleepHours:       optFloat(logFlags.sleep, f.Changed("sleep")),
			RestingHeartRate: optInt(logFlags.heartRate, f.Changed("heart-rate")),
			BMI:              optFloat(logFlags.bmi, f.Changed("bmi")),
			WeeklyLogCount:   optInt(logFlags.weekly, f.Changed("weekly-count")),
		},
		Labels: domain.ContextLabels{
			Activity: domain.ActivityLevel(logFlags.activity),
			Recovery: domain.RecoveryState(logFlags.recovery),
			Energy:   domain.EnergyLevel(logFlags.energy),
		},
	}

	d, err := daemon.New(log)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Tracker.LogEvent(cmd.Context(), logFlags.user, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
