// Package metrics provides Prometheus metrics for sugarstreak: logged events,
// corrective actions, XP, milestones, insight rules, storage conflicts and
// health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sugarstreak"

// ─── Events ─────────────────────────────────────────────────────────────────

// EventsLogged counts recorded intake events by sugar level and weekly
// logging frequency.
var EventsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "events_logged_total",
	Help:      "Total intake events recorded.",
}, []string{"sugar_level", "log_frequency"})

// StreakChanges counts streak transitions (started, extended, unchanged, reset).
var StreakChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "streak_changes_total",
	Help:      "Streak transitions caused by logged events.",
}, []string{"change"})

// InsightsSelected counts which insight rule fired.
var InsightsSelected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "insights_selected_total",
	Help:      "Insights selected by rule.",
}, []string{"rule"})

// ─── Rewards ────────────────────────────────────────────────────────────────

// CorrectiveActions counts completion attempts by outcome (awarded, duplicate).
var CorrectiveActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "corrective_actions_total",
	Help:      "Corrective action completions by outcome.",
}, []string{"outcome"})

// XPAwarded counts XP granted, labelled by payout size.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded.",
}, []string{"payout"})

// LevelUps counts level boundaries crossed.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "level_ups_total",
	Help:      "Total level-ups.",
})

// MilestonesUnlocked counts streak milestones by threshold.
var MilestonesUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "milestones_unlocked_total",
	Help:      "Streak milestones unlocked.",
}, []string{"milestone"})

// ─── Storage ────────────────────────────────────────────────────────────────

// StateConflicts counts optimistic-concurrency retries.
var StateConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "state_conflicts_total",
	Help:      "Gamification state writes retried after a version conflict.",
})

// CacheResults counts label cache lookups by result (hit, miss, error).
var CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "label_cache_results_total",
	Help:      "Context label cache lookups by result.",
}, []string{"result"})

// ─── API ────────────────────────────────────────────────────────────────────

// RequestLatency tracks HTTP handler duration in seconds.
var RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
}, []string{"route", "status"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// CachePurged counts expired label cache rows removed by the scheduler.
var CachePurged = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "label_cache_purged_total",
	Help:      "Expired label cache entries purged.",
})
