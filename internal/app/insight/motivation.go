package insight

import (
	"fmt"

	"github.com/sugarstreak/sugarstreak/internal/domain"
)

// VeryControlledDayMax is the daily intake in grams at or below which a day
// counts as very controlled.
const VeryControlledDayMax = 10.0

// MessageContext is what the motivational selector sees for one event.
type MessageContext struct {
	Streak int
	Labels domain.ContextLabels
	// DailyTotal is the grams logged on the event's calendar day, this event
	// included. Nil when unknown.
	DailyTotal *float64
}

var streakMessages = map[int]string{
	3:  "Three days in a row! You are building real awareness.",
	7:  "A full week of tracking. That is how habits are made.",
	30: "Thirty days! Your consistency is truly paying off.",
}

type comboMessage struct {
	id      string
	match   func(MessageContext) bool
	message string
}

var comboMessages = []comboMessage{
	{
		id: "low_activity_high_sugar",
		match: func(c MessageContext) bool {
			return c.Labels.Activity == domain.ActivityLow && c.Labels.Sugar == domain.SugarHigh
		},
		message: "Some movement today would really help balance this one out. You have got this.",
	},
	{
		id: "poor_recovery_low_energy",
		match: func(c MessageContext) bool {
			return c.Labels.Recovery == domain.RecoveryNeedsRest && c.Labels.Energy == domain.EnergyLow
		},
		message: "Your body is asking for rest more than sugar. Be kind to yourself tonight.",
	},
	{
		id: "low_activity",
		match: func(c MessageContext) bool {
			return c.Labels.Activity == domain.ActivityLow
		},
		message: "Even a short walk counts. Small steps add up.",
	},
	{
		id: "low_energy",
		match: func(c MessageContext) bool {
			return c.Labels.Energy == domain.EnergyLow
		},
		message: "Low on energy? Water and a quick break can do more than a sugar boost.",
	},
	{
		id: "very_controlled_day",
		match: func(c MessageContext) bool {
			return c.DailyTotal != nil && *c.DailyTotal <= VeryControlledDayMax
		},
		message: "A very controlled day so far. Keep it up!",
	},
}

var genericMessages = []string{
	"Every log is a step toward understanding your habits.",
	"Awareness is progress. Nice work checking in.",
	"You showed up for yourself today. That matters.",
	"Small choices, repeated daily, change everything.",
	"Keep going. Consistency beats perfection.",
	"Noticing is the hardest part, and you just did it.",
}

// SelectMessage returns encouragement for an event. Exact streak milestones
// come first, then context combinations in priority order, then a random
// generic line that avoids entries in seen when possible.
func SelectMessage(c MessageContext, r Rand, seen *History) string {
	if msg, ok := streakMessages[c.Streak]; ok {
		return msg
	}
	for _, cm := range comboMessages {
		if cm.match(c) {
			return cm.message
		}
	}
	key := func(i int) string { return fmt.Sprintf("motivation:%d", i) }
	i := pick(len(genericMessages), key, r, seen)
	seen.Push(key(i))
	return genericMessages[i]
}
