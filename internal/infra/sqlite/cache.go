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

// ─── Context Label Cache ────────────────────────────────────────────────────

// LabelCache keeps the last externally supplied context labels per user in
// the main database. Expired rows are ignored on read and removed by Purge.
type LabelCache struct {
	db *DB
}

// NewLabelCache returns a cache backed by db.
func NewLabelCache(db *DB) *LabelCache {
	return &LabelCache{db: db}
}

// Get returns cached labels or domain.ErrCacheMiss.
func (c *LabelCache) Get(ctx context.Context, userID string) (domain.ContextLabels, error) {
	var labels domain.ContextLabels
	var raw string
	err := c.db.db.QueryRowContext(ctx,
		`SELECT labels FROM context_cache WHERE user_id = ? AND expires_at > ?`,
		userID, c.db.now().Unix(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return labels, domain.ErrCacheMiss
	}
	if err != nil {
		return labels, fmt.Errorf("get cached labels: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return labels, fmt.Errorf("decode cached labels: %w", err)
	}
	return labels, nil
}

// Put stores labels for ttl, replacing any previous entry.
func (c *LabelCache) Put(ctx context.Context, userID string, labels domain.ContextLabels, ttl time.Duration) error {
	raw, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	_, err = c.db.db.ExecContext(ctx,
		`INSERT INTO context_cache (user_id, labels, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET labels = excluded.labels, expires_at = excluded.expires_at`,
		userID, string(raw), c.db.now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("put cached labels: %w", err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (c *LabelCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.db.ExecContext(ctx,
		`DELETE FROM context_cache WHERE expires_at <= ?`, c.db.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge label cache: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks the backing database.
func (c *LabelCache) Ping(ctx context.Context) error {
	return c.db.Ping(ctx)
}
