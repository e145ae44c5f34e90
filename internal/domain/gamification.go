package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// ─── Gamification State ─────────────────────────────────────────────────────

// GamificationState is the durable per-user progress record.
// Level is derived from XP on every read and write; it is never trusted from storage.
type GamificationState struct {
	UserID             string       `json:"user_id"`
	XP                 int64        `json:"xp"`
	Level              int          `json:"level"`
	CurrentStreak      int          `json:"current_streak"`
	LongestStreak      int          `json:"longest_streak"`
	LastEventDate      *time.Time   `json:"last_event_date,omitempty"`
	TotalEvents        int          `json:"total_events"`
	UnlockedMilestones MilestoneSet `json:"unlocked_milestones"`
	RecentInsights     []string     `json:"recent_insights,omitempty"`
	Timezone           string       `json:"timezone"`
	Version            int64        `json:"version"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// NewGamificationState returns the initial record for a user who has never logged.
func NewGamificationState(userID, timezone string) GamificationState {
	if timezone == "" {
		timezone = "UTC"
	}
	return GamificationState{
		UserID:   userID,
		Level:    1,
		Timezone: timezone,
	}
}

// Location resolves the user's reference calendar. Unknown zones fall back to UTC.
func (s GamificationState) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ─── Milestones ─────────────────────────────────────────────────────────────

// MilestoneSet is the set of streak thresholds already celebrated.
// The zero value is an empty set ready to use.
type MilestoneSet struct {
	days []int
}

// NewMilestoneSet builds a set from the given thresholds.
func NewMilestoneSet(days ...int) MilestoneSet {
	var s MilestoneSet
	for _, d := range days {
		s.Add(d)
	}
	return s
}

// Has reports whether the threshold was already unlocked.
func (s MilestoneSet) Has(days int) bool {
	i := sort.SearchInts(s.days, days)
	return i < len(s.days) && s.days[i] == days
}

// Add records a threshold. Adding an existing threshold is a no-op.
func (s *MilestoneSet) Add(days int) {
	i := sort.SearchInts(s.days, days)
	if i < len(s.days) && s.days[i] == days {
		return
	}
	s.days = append(s.days, 0)
	copy(s.days[i+1:], s.days[i:])
	s.days[i] = days
}

// Len returns the number of unlocked thresholds.
func (s MilestoneSet) Len() int { return len(s.days) }

// Days returns the unlocked thresholds in ascending order.
func (s MilestoneSet) Days() []int {
	out := make([]int, len(s.days))
	copy(out, s.days)
	return out
}

func (s MilestoneSet) MarshalJSON() ([]byte, error) {
	if s.days == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.days)
}

func (s *MilestoneSet) UnmarshalJSON(data []byte) error {
	var days []int
	if err := json.Unmarshal(data, &days); err != nil {
		return err
	}
	*s = NewMilestoneSet(days...)
	return nil
}

// Achievement is the display payload for a freshly unlocked streak milestone.
// It carries tags and text only; rendering belongs to the caller.
type Achievement struct {
	ID      string `json:"id"`
	Days    int    `json:"days"`
	Emoji   string `json:"emoji"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// XPSource identifies why XP was granted.
type XPSource string

const (
	XPSourceCorrectiveAction XPSource = "corrective_action"
)

// XPEntry is one append-only row of the XP ledger.
type XPEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	Amount    int64     `json:"amount"`
	Source    XPSource  `json:"source"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}
