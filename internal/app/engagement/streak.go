// Package engagement implements the gamification core: calendar-day streaks,
// the XP curve with its variable reward draw, and streak milestones.
// Everything here is a pure transition over domain.GamificationState; storage
// and concurrency belong to the tracker.
package engagement

import (
	"time"

	"github.com/sugarstreak/sugarstreak/internal/domain"
)

// StreakChange describes what an event did to the streak.
type StreakChange string

const (
	StreakStarted   StreakChange = "started"
	StreakExtended  StreakChange = "extended"
	StreakUnchanged StreakChange = "unchanged"
	StreakReset     StreakChange = "reset"
)

// UpdateStreak applies one logged event to the streak fields.
// Days are civil dates in loc. Same day: no-op. Next day: +1. Larger gap:
// reset to 1. An event dated before the last counted day is treated as same day.
func UpdateStreak(s domain.GamificationState, occurredAt time.Time, loc *time.Location) (domain.GamificationState, StreakChange) {
	today := domain.CalendarDay(occurredAt, loc)

	if s.LastEventDate == nil {
		s.CurrentStreak = 1
		s = markDay(s, today)
		return s, StreakStarted
	}

	last := domain.CalendarDay(*s.LastEventDate, time.UTC)
	gap := daysBetween(last, today)

	var change StreakChange
	switch {
	case gap <= 0:
		return s, StreakUnchanged
	case gap == 1:
		s.CurrentStreak++
		change = StreakExtended
	default:
		// Streaks break silently.
		s.CurrentStreak = 1
		change = StreakReset
	}
	return markDay(s, today), change
}

func markDay(s domain.GamificationState, day time.Time) domain.GamificationState {
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	d := day
	s.LastEventDate = &d
	return s
}

// daysBetween counts whole civil days from a to b. Both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(time.Hour).Hours() / 24)
}
