package engagement

import (
	"fmt"

	"github.com/sugarstreak/sugarstreak/internal/domain"
)

// XPForLevel returns the cumulative XP at which a level starts.
// Moving from L to L+1 costs 25*L, so level L starts at 12.5*L*(L-1).
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	l := int64(level)
	return l * (l - 1) / 2 * 25
}

// LevelOf returns the level for a total XP amount.
// Iterates upward from level 1; never trust a stored level.
func LevelOf(xp int64) int {
	level := 1
	for xp >= XPForLevel(level+1) {
		level++
	}
	return level
}

// XPToNextLevel returns XP remaining until the next level.
func XPToNextLevel(xp int64) int64 {
	if xp < 0 {
		xp = 0
	}
	return XPForLevel(LevelOf(xp)+1) - xp
}

// ProgressPct returns progress toward the next level (0.0–100.0).
func ProgressPct(xp int64) float64 {
	if xp < 0 {
		return 0
	}
	level := LevelOf(xp)
	thisLevel := XPForLevel(level)
	span := XPForLevel(level+1) - thisLevel
	progress := float64(xp-thisLevel) / float64(span) * 100.0
	if progress > 100 {
		progress = 100
	}
	return progress
}

// AwardXP adds XP and reports whether a level boundary was crossed.
// Non-positive amounts are rejected and leave the state untouched.
func AwardXP(s domain.GamificationState, amount int64) (domain.GamificationState, bool, error) {
	if amount <= 0 {
		return s, false, fmt.Errorf("%w: got %d", domain.ErrInvalidXP, amount)
	}
	oldLevel := LevelOf(s.XP)
	s.XP += amount
	s.Level = LevelOf(s.XP)
	return s, s.Level > oldLevel, nil
}
