package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sugarstreak/sugarstreak/internal/domain"
)

// ─── Gamification State ─────────────────────────────────────────────────────

// execer is implemented by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// LoadState reads a user's record. Returns domain.ErrStateNotFound when the
// user has never been saved. Level is left for the caller to derive.
func (d *DB) LoadState(ctx context.Context, userID string) (domain.GamificationState, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT user_id, xp, current_streak, longest_streak, last_event_date, total_events,
		        milestones, recent_insights, timezone, version, updated_at
		 FROM gamification_state WHERE user_id = ?`, userID)

	s, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GamificationState{}, domain.ErrStateNotFound
	}
	if err != nil {
		return domain.GamificationState{}, fmt.Errorf("load state %s: %w", userID, err)
	}
	return s, nil
}

// SaveState writes s if the stored version still equals s.Version, and
// returns the new version. A new user is saved with s.Version == 0.
func (d *DB) SaveState(ctx context.Context, s domain.GamificationState) (int64, error) {
	return d.saveState(ctx, d.db, s)
}

func (d *DB) saveState(ctx context.Context, ex execer, s domain.GamificationState) (int64, error) {
	milestones, err := json.Marshal(s.UnlockedMilestones)
	if err != nil {
		return 0, fmt.Errorf("encode milestones: %w", err)
	}
	recent := s.RecentInsights
	if recent == nil {
		recent = []string{}
	}
	insights, err := json.Marshal(recent)
	if err != nil {
		return 0, fmt.Errorf("encode insight history: %w", err)
	}

	var lastDay interface{}
	if s.LastEventDate != nil {
		lastDay = s.LastEventDate.Format(dayLayout)
	}

	next := s.Version + 1
	res, err := ex.ExecContext(ctx,
		`INSERT INTO gamification_state
		   (user_id, xp, current_streak, longest_streak, last_event_date, total_events,
		    milestones, recent_insights, timezone, version, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   xp = excluded.xp,
		   current_streak = excluded.current_streak,
		   longest_streak = excluded.longest_streak,
		   last_event_date = excluded.last_event_date,
		   total_events = excluded.total_events,
		   milestones = excluded.milestones,
		   recent_insights = excluded.recent_insights,
		   timezone = excluded.timezone,
		   version = excluded.version,
		   updated_at = excluded.updated_at
		 WHERE gamification_state.version = excluded.version - 1`,
		s.UserID, s.XP, s.CurrentStreak, s.LongestStreak, lastDay, s.TotalEvents,
		string(milestones), string(insights), s.Timezone, next, d.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("save state %s: %w", s.UserID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("save state %s: %w", s.UserID, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("save state %s at version %d: %w", s.UserID, s.Version, domain.ErrVersionConflict)
	}
	return next, nil
}

func scanState(s scanner) (domain.GamificationState, error) {
	var (
		st         domain.GamificationState
		lastDay    sql.NullString
		milestones string
		insights   string
		updatedAt  int64
	)
	err := s.Scan(&st.UserID, &st.XP, &st.CurrentStreak, &st.LongestStreak, &lastDay,
		&st.TotalEvents, &milestones, &insights, &st.Timezone, &st.Version, &updatedAt)
	if err != nil {
		return st, err
	}
	if lastDay.Valid {
		day, err := time.Parse(dayLayout, lastDay.String)
		if err != nil {
			return st, fmt.Errorf("parse last_event_date: %w", err)
		}
		st.LastEventDate = &day
	}
	if err := json.Unmarshal([]byte(milestones), &st.UnlockedMilestones); err != nil {
		return st, fmt.Errorf("decode milestones: %w", err)
	}
	if err := json.Unmarshal([]byte(insights), &st.RecentInsights); err != nil {
		return st, fmt.Errorf("decode insight history: %w", err)
	}
	st.UpdatedAt = time.Unix(updatedAt, 0)
	return st, nil
}
