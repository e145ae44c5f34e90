// Package sqlite provides SQLite-based persistent storage for sugarstreak.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the SQLite database at dir/sugarstreak.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "sugarstreak.db")
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db, now: time.Now}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Per-user progress record. version backs optimistic concurrency.
		`CREATE TABLE IF NOT EXISTS gamification_state (
			user_id         TEXT PRIMARY KEY,
			xp              INTEGER NOT NULL DEFAULT 0,
			current_streak  INTEGER NOT NULL DEFAULT 0,
			longest_streak  INTEGER NOT NULL DEFAULT 0,
			last_event_date TEXT,
			total_events    INTEGER NOT NULL DEFAULT 0,
			milestones      TEXT NOT NULL DEFAULT '[]',
			recent_insights TEXT NOT NULL DEFAULT '[]',
			timezone        TEXT NOT NULL DEFAULT 'UTC',
			version         INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL
		)`,

		// Logged intake events
		`CREATE TABLE IF NOT EXISTS events (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			amount          REAL NOT NULL,
			occurred_at     INTEGER NOT NULL,
			local_day       TEXT NOT NULL,
			time_of_day     TEXT NOT NULL,
			labels          TEXT NOT NULL DEFAULT '{}',
			insight_rule    TEXT NOT NULL DEFAULT '',
			corrective_done BOOLEAN NOT NULL DEFAULT 0,
			completed_at    INTEGER,
			created_at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_day ON events(user_id, local_day)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_time ON events(user_id, occurred_at)`,

		// Append-only XP ledger, at most one award per event
		`CREATE TABLE IF NOT EXISTS xp_ledger (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			event_id   TEXT NOT NULL UNIQUE,
			amount     INTEGER NOT NULL,
			source     TEXT NOT NULL,
			balance    INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_xp_user ON xp_ledger(user_id, id)`,

		// Best-effort cache of externally supplied context labels
		`CREATE TABLE IF NOT EXISTS context_cache (
			user_id    TEXT PRIMARY KEY,
			labels     TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_context_expiry ON context_cache(expires_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// nullableUnix converts a *time.Time to a nullable int64 for SQLite.
func nullableUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

const dayLayout = "2006-01-02"

// withTx runs fn inside a transaction, committing on success.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
