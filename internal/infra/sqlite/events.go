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

// ─── Events ─────────────────────────────────────────────────────────────────

// RecordEvent stores a new event together with the state it produced.
// Both writes commit or neither does. Returns the new state version.
func (d *DB) RecordEvent(ctx context.Context, ev domain.LoggedEvent, s domain.GamificationState) (int64, error) {
	labels, err := json.Marshal(ev.Labels)
	if err != nil {
		return 0, fmt.Errorf("encode labels: %w", err)
	}

	var version int64
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		v, err := d.saveState(ctx, tx, s)
		if err != nil {
			return err
		}
		version = v

		_, err = tx.ExecContext(ctx,
			`INSERT INTO events
			   (id, user_id, amount, occurred_at, local_day, time_of_day, labels, insight_rule,
			    corrective_done, completed_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)`,
			ev.ID, ev.UserID, ev.Amount, ev.OccurredAt.Unix(), ev.Day.Format(dayLayout),
			string(ev.TimeOfDay), string(labels), ev.InsightRule, ev.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", ev.ID, err)
		}
		return nil
	})
	return version, err
}

// GetEvent returns a single event by id.
func (d *DB) GetEvent(ctx context.Context, id string) (domain.LoggedEvent, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount, occurred_at, local_day, time_of_day, labels, insight_rule,
		        corrective_done, completed_at, created_at
		 FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ev, fmt.Errorf("event %s: %w", id, domain.ErrEventNotFound)
	}
	if err != nil {
		return ev, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

// ListEvents returns a user's most recent events, newest first.
func (d *DB) ListEvents(ctx context.Context, userID string, limit int) ([]domain.LoggedEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, amount, occurred_at, local_day, time_of_day, labels, insight_rule,
		        corrective_done, completed_at, created_at
		 FROM events WHERE user_id = ? ORDER BY occurred_at DESC, created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.LoggedEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DailyTotal sums the amounts a user logged on one calendar day.
func (d *DB) DailyTotal(ctx context.Context, userID string, day time.Time) (float64, error) {
	var total float64
	err := d.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM events WHERE user_id = ? AND local_day = ?`,
		userID, day.Format(dayLayout),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("daily total: %w", err)
	}
	return total, nil
}

// CountEventsBetween counts a user's events with from <= occurred_at <= to.
func (d *DB) CountEventsBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE user_id = ? AND occurred_at >= ? AND occurred_at <= ?`,
		userID, from.Unix(), to.Unix(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// CompleteAction marks an event's corrective action done, saves the state
// carrying the award, and appends the ledger entry, all in one transaction.
// Returns domain.ErrAlreadyCompleted if the action was completed before.
func (d *DB) CompleteAction(ctx context.Context, eventID string, at time.Time, s domain.GamificationState, entry domain.XPEntry) (int64, error) {
	var version int64
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE events SET corrective_done = 1, completed_at = ?
			 WHERE id = ? AND corrective_done = 0`,
			at.Unix(), eventID)
		if err != nil {
			return fmt.Errorf("mark event %s: %w", eventID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark event %s: %w", eventID, err)
		}
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id = ?`, eventID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("lookup event %s: %w", eventID, err)
			}
			if exists == 0 {
				return fmt.Errorf("event %s: %w", eventID, domain.ErrEventNotFound)
			}
			return fmt.Errorf("event %s: %w", eventID, domain.ErrAlreadyCompleted)
		}

		v, err := d.saveState(ctx, tx, s)
		if err != nil {
			return err
		}
		version = v

		if _, err := insertXPEntry(ctx, tx, entry); err != nil {
			return err
		}
		return nil
	})
	return version, err
}

func scanEvent(s scanner) (domain.LoggedEvent, error) {
	var (
		ev          domain.LoggedEvent
		occurredAt  int64
		localDay    string
		timeOfDay   string
		labels      string
		completedAt sql.NullInt64
		createdAt   int64
	)
	err := s.Scan(&ev.ID, &ev.UserID, &ev.Amount, &occurredAt, &localDay, &timeOfDay, &labels,
		&ev.InsightRule, &ev.CorrectiveActionCompleted, &completedAt, &createdAt)
	if err != nil {
		return ev, err
	}
	ev.OccurredAt = time.Unix(occurredAt, 0)
	ev.TimeOfDay = domain.TimeOfDay(timeOfDay)
	ev.CreatedAt = time.Unix(createdAt, 0)
	if day, err := time.Parse(dayLayout, localDay); err == nil {
		ev.Day = day
	}
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		ev.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(labels), &ev.Labels); err != nil {
		return ev, fmt.Errorf("decode labels: %w", err)
	}
	return ev, nil
}
