// Package health runs scheduled dependency checks for the daemon.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/sugarstreak/sugarstreak/internal/infra/metrics"
)

// Check defines a single named health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Pinger is anything that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker runs health checks on demand; the daemon's scheduler drives it.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	timeout  time.Duration
}

// NewChecker creates a checker for the store and the label cache.
// cache may be nil when no cache is configured.
func NewChecker(store Pinger, cache Pinger) *Checker {
	c := &Checker{timeout: 5 * time.Second}
	c.Add(Check{Name: "sqlite", CheckFn: store.Ping})
	if cache != nil {
		c.Add(Check{Name: "label_cache", CheckFn: cache.Ping})
	}
	return c
}

// Add registers another check.
func (c *Checker) Add(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check)
}

// RunOnce executes every check and stores the results.
func (c *Checker) RunOnce(ctx context.Context) {
	c.mu.RLock()
	checks := make([]Check, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	statuses := make([]Status, len(checks))
	for i, check := range checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := check.CheckFn(checkCtx)
		cancel()
		if err != nil {
			s.Error = err.Error()
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(0)
		} else {
			s.Healthy = true
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(1)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass. Before the first run it
// reports healthy.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}
