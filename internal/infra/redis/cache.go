// Package redis provides a Redis-backed context label cache for deployments
// that run more than one sugarstreak process.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sugarstreak/sugarstreak/internal/domain"
)

const keyPrefix = "sugarstreak:labels:"

// LabelCache stores each user's labels under a key with a native TTL.
type LabelCache struct {
	rdb *goredis.Client
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Open connects and pings Redis.
func Open(ctx context.Context, opts Options) (*LabelCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &LabelCache{rdb: rdb}, nil
}

// Get returns cached labels or domain.ErrCacheMiss.
func (c *LabelCache) Get(ctx context.Context, userID string) (domain.ContextLabels, error) {
	var labels domain.ContextLabels
	raw, err := c.rdb.Get(ctx, keyPrefix+userID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return labels, domain.ErrCacheMiss
	}
	if err != nil {
		return labels, fmt.Errorf("redis get labels: %w", err)
	}
	if err := json.Unmarshal(raw, &labels); err != nil {
		return labels, fmt.Errorf("decode cached labels: %w", err)
	}
	return labels, nil
}

// Put stores labels for ttl.
func (c *LabelCache) Put(ctx context.Context, userID string, labels domain.ContextLabels, ttl time.Duration) error {
	raw, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+userID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set labels: %w", err)
	}
	return nil
}

// Purge is a no-op; Redis expires keys on its own.
func (c *LabelCache) Purge(context.Context) (int64, error) { return 0, nil }

// Ping checks the connection.
func (c *LabelCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *LabelCache) Close() error {
	return c.rdb.Close()
}
