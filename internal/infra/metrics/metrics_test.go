package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestEventMetrics(t *testing.T) {
	EventsLogged.WithLabelValues("High", "Regular").Inc()
	StreakChanges.WithLabelValues("extended").Inc()
	InsightsSelected.WithLabelValues("crash_risk").Inc()

	names := gatheredNames(t)
	expected := []string{
		"sugarstreak_events_logged_total",
		"sugarstreak_streak_changes_total",
		"sugarstreak_insights_selected_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestRewardMetrics(t *testing.T) {
	CorrectiveActions.WithLabelValues("awarded").Inc()
	XPAwarded.WithLabelValues("5").Add(5)
	LevelUps.Inc()
	MilestonesUnlocked.WithLabelValues("7").Inc()

	names := gatheredNames(t)
	expected := []string{
		"sugarstreak_corrective_actions_total",
		"sugarstreak_xp_awarded_total",
		"sugarstreak_level_ups_total",
		"sugarstreak_milestones_unlocked_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestInfraMetrics(t *testing.T) {
	StateConflicts.Inc()
	CacheResults.WithLabelValues("hit").Inc()
	RequestLatency.WithLabelValues("/health", "200").Observe(0.01)
	HealthCheckStatus.WithLabelValues("sqlite").Set(1)
	CachePurged.Add(2)

	names := gatheredNames(t)
	expected := []string{
		"sugarstreak_state_conflicts_total",
		"sugarstreak_label_cache_results_total",
		"sugarstreak_http_request_duration_seconds",
		"sugarstreak_health_check_status",
		"sugarstreak_label_cache_purged_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}
