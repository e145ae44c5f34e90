package engagement

import (
	"fmt"

	"github.com/sugarstreak/sugarstreak/internal/domain"
)

type milestoneCopy struct {
	emoji, title, message string
}

var milestoneTable = map[int]milestoneCopy{
	1:  {"🌱", "First Step", "You logged your first day. Awareness starts here."},
	3:  {"🔥", "Three-Day Run", "Three days of paying attention in a row."},
	7:  {"⭐", "One Full Week", "A whole week of showing up for yourself."},
	30: {"🏆", "Thirty Days Strong", "A month of mindful tracking. This is a habit now."},
}

// IsMilestone reports whether a streak length is a celebrated threshold:
// 1, 3, 7, 30 and every tenth day after 30.
func IsMilestone(days int) bool {
	if _, ok := milestoneTable[days]; ok {
		return true
	}
	return days > 30 && days%10 == 0
}

// CheckMilestone fires when the streak lands exactly on a threshold that was
// not unlocked before, and records it in unlocked. Returns nil otherwise.
func CheckMilestone(streak int, unlocked *domain.MilestoneSet) *domain.Achievement {
	if !IsMilestone(streak) || unlocked.Has(streak) {
		return nil
	}
	unlocked.Add(streak)
	return milestonePayload(streak)
}

func milestonePayload(days int) *domain.Achievement {
	c, ok := milestoneTable[days]
	if !ok {
		c = milestoneCopy{
			emoji:   "🏅",
			title:   fmt.Sprintf("%d-Day Streak", days),
			message: fmt.Sprintf("%d days in a row. Keep the momentum going.", days),
		}
	}
	return &domain.Achievement{
		ID:      fmt.Sprintf("streak_%d", days),
		Days:    days,
		Emoji:   c.emoji,
		Title:   c.title,
		Message: c.message,
	}
}
