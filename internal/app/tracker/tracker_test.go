package tracker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sugarstreak/sugarstreak/internal/app/engagement"
	"github.com/sugarstreak/sugarstreak/internal/app/insight"
	"github.com/sugarstreak/sugarstreak/internal/app/tracker"
	"github.com/sugarstreak/sugarstreak/internal/domain"
	"github.com/sugarstreak/sugarstreak/internal/infra/sqlite"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newService(t *testing.T, cache tracker.LabelCache) (*tracker.Service, *sqlite.DB) {
	t.Helper()
	db := testDB(t)
	svc := tracker.New(db, cache, tracker.Config{Seed: 42}, nil)
	return svc, db
}

// fixedRand draws the same value every time.
type fixedRand struct{ u float64 }

func (f fixedRand) Float64() float64 { return f.u }
func (f fixedRand) Intn(int) int     { return 0 }

// memCache is an in-memory LabelCache.
type memCache struct {
	mu     sync.Mutex
	labels map[string]domain.ContextLabels
	err    error
}

func newMemCache() *memCache { return &memCache{labels: map[string]domain.ContextLabels{}} }

func (m *memCache) Get(_ context.Context, userID string) (domain.ContextLabels, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.ContextLabels{}, m.err
	}
	l, ok := m.labels[userID]
	if !ok {
		return l, domain.ErrCacheMiss
	}
	return l, nil
}

func (m *memCache) Put(_ context.Context, userID string, labels domain.ContextLabels, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.labels[userID] = labels
	return nil
}

func at(dayOffset, hour int) time.Time {
	return time.Date(2025, 7, 1, hour, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset)
}

func intp(v int) *int { return &v }

// ═══════════════════════════════════════════════════════════════════════════
// LogEvent
// ═══════════════════════════════════════════════════════════════════════════

func TestLogEvent_FirstEvent(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	res, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 12, OccurredAt: at(0, 14)})
	if err != nil {
		t.Fatalf("LogEvent() error: %v", err)
	}
	if res.State.CurrentStreak != 1 || res.State.LongestStreak != 1 || res.State.TotalEvents != 1 {
		t.Errorf("state = %+v", res.State)
	}
	if res.State.XP != 0 || res.State.Level != 1 {
		t.Errorf("logging must not award xp: xp=%d level=%d", res.State.XP, res.State.Level)
	}
	if res.Achievement == nil || res.Achievement.Days != 1 {
		t.Errorf("expected first-day milestone, got %+v", res.Achievement)
	}
	if res.Event.ID == "" || res.Event.TimeOfDay != domain.Afternoon {
		t.Errorf("event = %+v", res.Event)
	}
	if res.Event.Labels.Sugar != domain.SugarModerate || res.Event.Labels.Frequency != domain.FrequencyRare {
		t.Errorf("labels = %+v", res.Event.Labels)
	}
	if res.Insight.Rule == "" || res.Insight.Message == "" || res.Message == "" {
		t.Errorf("missing insight or message: %+v / %q", res.Insight, res.Message)
	}
	if res.State.Version != 1 {
		t.Errorf("version = %d, want 1", res.State.Version)
	}
}

func TestLogEvent_SameDayDoesNotRefireMilestone(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 5, OccurredAt: at(0, 9)}); err != nil {
		t.Fatal(err)
	}
	res, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 5, OccurredAt: at(0, 15)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Achievement != nil {
		t.Errorf("unexpected milestone %+v", res.Achievement)
	}
	if res.StreakChange != engagement.StreakUnchanged || res.State.CurrentStreak != 1 {
		t.Errorf("change=%q streak=%d", res.StreakChange, res.State.CurrentStreak)
	}
	if res.State.TotalEvents != 2 {
		t.Errorf("total events = %d, want 2", res.State.TotalEvents)
	}
}

func TestLogEvent_ThreeDayMilestoneAndMessage(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	var res *tracker.LogResult
	for d := 0; d < 3; d++ {
		var err error
		res, err = svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 30, OccurredAt: at(d, 10)})
		if err != nil {
			t.Fatalf("day %d: %v", d, err)
		}
	}
	if res.State.CurrentStreak != 3 {
		t.Fatalf("streak = %d, want 3", res.State.CurrentStreak)
	}
	if res.Achievement == nil || res.Achievement.ID != "streak_3" {
		t.Errorf("achievement = %+v, want streak_3", res.Achievement)
	}
	if res.Message != insight.SelectMessage(insight.MessageContext{Streak: 3}, fixedRand{}, nil) {
		t.Errorf("message = %q, want the three-day override", res.Message)
	}
	if got := res.State.UnlockedMilestones.Days(); len(got) != 2 {
		t.Errorf("unlocked = %v, want [1 3]", got)
	}
}

func TestLogEvent_RejectsInvalidInput(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		user string
		req  tracker.LogRequest
		want error
	}{
		{"zero amount", "u1", tracker.LogRequest{Amount: 0, OccurredAt: at(0, 9)}, domain.ErrInvalidEvent},
		{"negative amount", "u1", tracker.LogRequest{Amount: -1, OccurredAt: at(0, 9)}, domain.ErrInvalidEvent},
		{"missing time", "u1", tracker.LogRequest{Amount: 4}, domain.ErrInvalidEvent},
		{"missing user", "", tracker.LogRequest{Amount: 4, OccurredAt: at(0, 9)}, domain.ErrInvalidUser},
		{"bad timezone", "u1", tracker.LogRequest{Amount: 4, OccurredAt: at(0, 9), Timezone: "Mars/Base"}, domain.ErrInvalidTimezone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.LogEvent(ctx, tt.user, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := db.LoadState(ctx, "u1"); !errors.Is(err, domain.ErrStateNotFound) {
		t.Errorf("rejected events must not create state, got %v", err)
	}
}

func TestLogEvent_TimezoneDrivesCalendar(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	// 23:30 UTC on Jul 1 and 01:00 UTC on Jul 2 are both Jul 1 evening in New York.
	req := tracker.LogRequest{Amount: 5, OccurredAt: time.Date(2025, 7, 1, 23, 30, 0, 0, time.UTC), Timezone: "America/New_York"}
	first, err := svc.LogEvent(ctx, "u1", req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Event.TimeOfDay != domain.Evening {
		t.Errorf("time of day = %q, want evening", first.Event.TimeOfDay)
	}
	second, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 5, OccurredAt: time.Date(2025, 7, 2, 1, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	if second.StreakChange != engagement.StreakUnchanged || second.State.Timezone != "America/New_York" {
		t.Errorf("change=%q tz=%q", second.StreakChange, second.State.Timezone)
	}
}

func TestLogEvent_SuppliedWeeklyCountIsClassified(t *testing.T) {
	svc, _ := newService(t, nil)

	res, err := svc.LogEvent(context.Background(), "u1", tracker.LogRequest{
		Amount:     10,
		OccurredAt: at(0, 9),
		Signals:    domain.RawSignals{WeeklyLogCount: intp(15)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Event.Labels.Frequency != domain.FrequencyFrequent {
		t.Errorf("frequency = %q, want %q", res.Event.Labels.Frequency, domain.FrequencyFrequent)
	}
}

func TestLogEvent_WeeklyCountIsTrailingWindow(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 2, OccurredAt: at(0, 8)}); err != nil {
			t.Fatal(err)
		}
	}

	later, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 2, OccurredAt: at(3, 8)})
	if err != nil {
		t.Fatal(err)
	}
	if later.Event.Labels.Frequency != domain.FrequencyFrequent {
		t.Errorf("frequency three days on = %q, want %q", later.Event.Labels.Frequency, domain.FrequencyFrequent)
	}

	backdated, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 2, OccurredAt: at(-30, 8)})
	if err != nil {
		t.Fatal(err)
	}
	if backdated.Event.Labels.Frequency != domain.FrequencyRare {
		t.Errorf("backdated frequency = %q, want %q", backdated.Event.Labels.Frequency, domain.FrequencyRare)
	}
}

func TestLogEvent_ExternalLabelsWinAndAreCached(t *testing.T) {
	cache := newMemCache()
	svc, _ := newService(t, cache)
	ctx := context.Background()

	res, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{
		Amount:     30,
		OccurredAt: at(0, 14),
		Signals:    domain.RawSignals{Steps: intp(12000)},
		Labels:     domain.ContextLabels{Activity: domain.ActivityLow},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Event.Labels.Activity != domain.ActivityLow {
		t.Errorf("activity = %q, want external Low", res.Event.Labels.Activity)
	}
	if res.Insight.Rule != insight.RuleCrashRisk {
		t.Errorf("rule = %q, want crash_risk", res.Insight.Rule)
	}

	// No override on the next log: the cached label still applies.
	res, err = svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 30, OccurredAt: at(0, 15)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Event.Labels.Activity != domain.ActivityLow {
		t.Errorf("activity = %q, want cached Low", res.Event.Labels.Activity)
	}
}

func TestLogEvent_CacheFailureIsTolerated(t *testing.T) {
	cache := newMemCache()
	cache.err = errors.New("cache down")
	svc, _ := newService(t, cache)

	res, err := svc.LogEvent(context.Background(), "u1", tracker.LogRequest{
		Amount:     8,
		OccurredAt: at(0, 9),
		Labels:     domain.ContextLabels{Energy: domain.EnergyLow},
	})
	if err != nil {
		t.Fatalf("LogEvent() error: %v", err)
	}
	if res.Event.Labels.Energy != domain.EnergyLow {
		t.Errorf("energy = %q, want supplied Low", res.Event.Labels.Energy)
	}
}

func TestLogEvent_ConcurrentSameUser(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 3, OccurredAt: at(0, 8).Add(time.Duration(i) * time.Minute)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("LogEvent() error: %v", err)
		}
	}

	st, err := db.LoadState(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalEvents != n || st.CurrentStreak != 1 {
		t.Errorf("total=%d streak=%d, want %d/1", st.TotalEvents, st.CurrentStreak, n)
	}
}

// conflictOnce fails the first state write with a version conflict.
type conflictOnce struct {
	*sqlite.DB
	mu    sync.Mutex
	fired bool
}

func (c *conflictOnce) RecordEvent(ctx context.Context, ev domain.LoggedEvent, s domain.GamificationState) (int64, error) {
	c.mu.Lock()
	if !c.fired {
		c.fired = true
		c.mu.Unlock()
		return 0, domain.ErrVersionConflict
	}
	c.mu.Unlock()
	return c.DB.RecordEvent(ctx, ev, s)
}

func TestLogEvent_RetriesOnVersionConflict(t *testing.T) {
	store := &conflictOnce{DB: testDB(t)}
	svc := tracker.New(store, nil, tracker.Config{Seed: 1}, nil)

	res, err := svc.LogEvent(context.Background(), "u1", tracker.LogRequest{Amount: 5, OccurredAt: at(0, 9)})
	if err != nil {
		t.Fatalf("LogEvent() error: %v", err)
	}
	if !store.fired || res.State.TotalEvents != 1 {
		t.Errorf("fired=%v total=%d", store.fired, res.State.TotalEvents)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// CompleteAction
// ═══════════════════════════════════════════════════════════════════════════

func TestCompleteAction_AwardsOnce(t *testing.T) {
	svc, db := newService(t, nil)
	svc.SetRand(fixedRand{u: 0.7})
	ctx := context.Background()

	logged, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 30, OccurredAt: at(0, 20)})
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.CompleteAction(ctx, logged.Event.ID, at(0, 21))
	if err != nil {
		t.Fatalf("CompleteAction() error: %v", err)
	}
	if first.AlreadyCompleted || first.Awarded != engagement.RewardUncommon || first.State.XP != 5 {
		t.Errorf("first completion = %+v", first)
	}

	second, err := svc.CompleteAction(ctx, logged.Event.ID, at(0, 22))
	if err != nil {
		t.Fatalf("second CompleteAction() error: %v", err)
	}
	if !second.AlreadyCompleted || second.Awarded != 0 || second.State.XP != 5 {
		t.Errorf("second completion = %+v", second)
	}

	history, err := db.XPHistory(ctx, "u1", 10)
	if err != nil || len(history) != 1 {
		t.Errorf("ledger = %v, %v; want one entry", history, err)
	}
}

func TestCompleteAction_ConcurrentDuplicates(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()

	logged, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 30, OccurredAt: at(0, 20)})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	awarded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.CompleteAction(ctx, logged.Event.ID, time.Time{})
			if err != nil {
				t.Errorf("CompleteAction() error: %v", err)
				return
			}
			if !res.AlreadyCompleted {
				mu.Lock()
				awarded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if awarded != 1 {
		t.Errorf("awards = %d, want 1", awarded)
	}
	st, _ := db.LoadState(ctx, "u1")
	entries, _ := db.XPHistory(ctx, "u1", 10)
	if len(entries) != 1 || st.XP != entries[0].Amount {
		t.Errorf("xp=%d entries=%v", st.XP, entries)
	}
}

func TestCompleteAction_LevelUp(t *testing.T) {
	svc, _ := newService(t, nil)
	svc.SetRand(fixedRand{u: 0.95})
	ctx := context.Background()

	var last *tracker.CompletionResult
	for i := 0; i < 3; i++ {
		logged, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 12, OccurredAt: at(0, 9+i)})
		if err != nil {
			t.Fatal(err)
		}
		last, err = svc.CompleteAction(ctx, logged.Event.ID, time.Time{})
		if err != nil {
			t.Fatal(err)
		}
		// 10, 20, 30 XP: level 2 starts at 25.
		if wantUp := i == 2; last.LeveledUp != wantUp {
			t.Errorf("completion %d: leveledUp = %v, want %v", i, last.LeveledUp, wantUp)
		}
	}
	if last.State.Level != 2 || last.State.XP != 30 || last.State.XPToNextLevel != 45 {
		t.Errorf("state = %+v", last.State)
	}
}

func TestCompleteAction_UnknownEvent(t *testing.T) {
	svc, _ := newService(t, nil)
	if _, err := svc.CompleteAction(context.Background(), "missing", time.Time{}); !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("error = %v, want ErrEventNotFound", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Queries
// ═══════════════════════════════════════════════════════════════════════════

func TestState_NotFound(t *testing.T) {
	svc, _ := newService(t, nil)
	if _, err := svc.State(context.Background(), "ghost"); !errors.Is(err, domain.ErrStateNotFound) {
		t.Errorf("error = %v, want ErrStateNotFound", err)
	}
}

func TestState_DerivesLevelFromXP(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()

	st := domain.NewGamificationState("u1", "UTC")
	st.XP = 160
	st.Level = 99 // stale stored level must be ignored
	if _, err := db.SaveState(ctx, st); err != nil {
		t.Fatal(err)
	}
	view, err := svc.State(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if view.Level != 4 {
		t.Errorf("level = %d, want 4", view.Level)
	}
}

func TestEvents_NewestFirst(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	for d := 0; d < 3; d++ {
		if _, err := svc.LogEvent(ctx, "u1", tracker.LogRequest{Amount: 4, OccurredAt: at(d, 9)}); err != nil {
			t.Fatal(err)
		}
	}
	events, err := svc.Events(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || !events[0].OccurredAt.Equal(at(2, 9)) {
		t.Errorf("events = %+v", events)
	}
}
