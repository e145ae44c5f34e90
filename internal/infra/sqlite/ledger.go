package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sugarstreak/sugarstreak/internal/domain"
)

// ─── XP Ledger ──────────────────────────────────────────────────────────────

func insertXPEntry(ctx context.Context, ex execer, e domain.XPEntry) (int64, error) {
	result, err := ex.ExecContext(ctx,
		`INSERT INTO xp_ledger (user_id, event_id, amount, source, balance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.EventID, e.Amount, string(e.Source), e.Balance, e.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert xp entry for event %s: %w", e.EventID, err)
	}
	return result.LastInsertId()
}

// XPHistory returns a user's recent ledger entries, newest first.
func (d *DB) XPHistory(ctx context.Context, userID string, limit int) ([]domain.XPEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, event_id, amount, source, balance, created_at
		 FROM xp_ledger WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("xp history: %w", err)
	}
	defer rows.Close()

	var entries []domain.XPEntry
	for rows.Next() {
		var e domain.XPEntry
		var source string
		var ts int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.EventID, &e.Amount, &source, &e.Balance, &ts); err != nil {
			return nil, fmt.Errorf("scan xp entry: %w", err)
		}
		e.Source = domain.XPSource(source)
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
