package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TimeOfDay is the coarse bucket of the local hour an event occurred in.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimeOfDayFor buckets a local hour: [5,12) morning, [12,17) afternoon,
// [17,21) evening, everything else night.
func TimeOfDayFor(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// CalendarDay returns the civil date of t in loc, normalized to UTC midnight
// so two days can be subtracted without DST noise.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LoggedEvent is one recorded intake occurrence.
type LoggedEvent struct {
	ID                        string        `json:"id"`
	UserID                    string        `json:"user_id"`
	Amount                    float64       `json:"amount"`
	OccurredAt                time.Time     `json:"occurred_at"`
	Day                       time.Time     `json:"day"`
	TimeOfDay                 TimeOfDay     `json:"time_of_day"`
	CorrectiveActionCompleted bool          `json:"corrective_action_completed"`
	CompletedAt               *time.Time    `json:"completed_at,omitempty"`
	Labels                    ContextLabels `json:"labels"`
	InsightRule               string        `json:"insight_rule,omitempty"`
	CreatedAt                 time.Time     `json:"created_at"`
}

// ValidateIntake checks the caller-supplied parts of an event.
func ValidateIntake(userID string, amount float64, occurredAt time.Time) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return fmt.Errorf("%w: amount %v must be a positive number", ErrInvalidEvent, amount)
	}
	if occurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidEvent)
	}
	return nil
}
