// Package tracker orchestrates the per-user read-modify-write cycle: it
// loads a user's gamification state, applies the engagement and insight
// rules to a logged event or a completed corrective action, and persists the
// result atomically with optimistic concurrency.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sugarstreak/sugarstreak/internal/app/engagement"
	"github.com/sugarstreak/sugarstreak/internal/app/insight"
	"github.com/sugarstreak/sugarstreak/internal/domain"
	"github.com/sugarstreak/sugarstreak/internal/infra/metrics"
	"github.com/sugarstreak/sugarstreak/internal/logger"
)

// Store is the persistence the tracker needs.
type Store interface {
	LoadState(ctx context.Context, userID string) (domain.GamificationState, error)
	RecordEvent(ctx context.Context, ev domain.LoggedEvent, s domain.GamificationState) (int64, error)
	GetEvent(ctx context.Context, id string) (domain.LoggedEvent, error)
	ListEvents(ctx context.Context, userID string, limit int) ([]domain.LoggedEvent, error)
	CompleteAction(ctx context.Context, eventID string, at time.Time, s domain.GamificationState, entry domain.XPEntry) (int64, error)
	DailyTotal(ctx context.Context, userID string, day time.Time) (float64, error)
	CountEventsBetween(ctx context.Context, userID string, from, to time.Time) (int, error)
	XPHistory(ctx context.Context, userID string, limit int) ([]domain.XPEntry, error)
}

// LabelCache remembers externally supplied context labels between logs.
type LabelCache interface {
	Get(ctx context.Context, userID string) (domain.ContextLabels, error)
	Put(ctx context.Context, userID string, labels domain.ContextLabels, ttl time.Duration) error
}

// Config tunes the service.
type Config struct {
	DefaultTimezone string
	HistorySize     int
	MaxRetries      int
	CacheTTL        time.Duration
	Seed            int64
}

// Service applies logged events and corrective actions to user state.
type Service struct {
	store Store
	cache LabelCache
	cfg   Config
	log   *logger.Logger
	locks *keyLock
	rng   Rand
	now   func() time.Time
}

// New creates a tracker service. cache may be nil.
func New(store Store, cache LabelCache, cfg Config, log *logger.Logger) *Service {
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = insight.DefaultHistorySize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
		log:   log.With("component", "tracker"),
		locks: newKeyLock(),
		rng:   NewRand(cfg.Seed),
		now:   time.Now,
	}
}

// SetRand replaces the random source. It must be safe for concurrent use.
func (s *Service) SetRand(r Rand) { s.rng = r }

// SetClock replaces the wall clock.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ─── Results ────────────────────────────────────────────────────────────────

// StateView is a gamification record plus derived level progress.
type StateView struct {
	domain.GamificationState
	XPToNextLevel int64   `json:"xp_to_next_level"`
	ProgressPct   float64 `json:"progress_pct"`
}

func viewOf(st domain.GamificationState) StateView {
	st.Level = engagement.LevelOf(st.XP)
	return StateView{
		GamificationState: st,
		XPToNextLevel:     engagement.XPToNextLevel(st.XP),
		ProgressPct:       engagement.ProgressPct(st.XP),
	}
}

// LogRequest is one intake to record.
type LogRequest struct {
	Amount     float64
	OccurredAt time.Time
	Signals    domain.RawSignals
	// Labels are externally supplied and take precedence over derived ones.
	Labels domain.ContextLabels
	// Timezone, when set, updates the user's reference calendar.
	Timezone string
}

// LogResult is what the caller shows after a log.
type LogResult struct {
	Event        domain.LoggedEvent      `json:"event"`
	State        StateView               `json:"state"`
	StreakChange engagement.StreakChange `json:"streak_change"`
	Achievement  *domain.Achievement     `json:"achievement,omitempty"`
	Insight      domain.Insight          `json:"insight"`
	Message      string                  `json:"message"`
}

// CompletionResult reports a corrective action completion.
// AlreadyCompleted is true, with nothing awarded, for a repeated completion.
type CompletionResult struct {
	EventID          string    `json:"event_id"`
	State            StateView `json:"state"`
	Awarded          int64     `json:"xp_awarded"`
	LeveledUp        bool      `json:"leveled_up"`
	AlreadyCompleted bool      `json:"already_completed"`
}

// ─── Operations ─────────────────────────────────────────────────────────────

// LogEvent records an intake and returns the updated state together with
// any milestone, the selected insight and a motivational message.
// Logging never awards XP.
func (s *Service) LogEvent(ctx context.Context, userID string, req LogRequest) (*LogResult, error) {
	if err := domain.ValidateIntake(userID, req.Amount, req.OccurredAt); err != nil {
		return nil, err
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidTimezone, req.Timezone)
		}
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	external := s.externalLabels(ctx, userID, insight.Sanitize(req.Labels))

	var res *LogResult
	err := s.withRetry(ctx, userID, func() error {
		r, err := s.logOnce(ctx, userID, req, external)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EventsLogged.WithLabelValues(string(res.Event.Labels.Sugar), string(res.Event.Labels.Frequency)).Inc()
	metrics.StreakChanges.WithLabelValues(string(res.StreakChange)).Inc()
	metrics.InsightsSelected.WithLabelValues(res.Insight.Rule).Inc()
	if res.Achievement != nil {
		metrics.MilestonesUnlocked.WithLabelValues(strconv.Itoa(res.Achievement.Days)).Inc()
		s.log.Info("milestone unlocked", "user_id", userID, "days", res.Achievement.Days)
	}
	s.log.Debug("event recorded",
		"user_id", userID,
		"event_id", res.Event.ID,
		"streak", res.State.CurrentStreak,
		"change", res.StreakChange,
		"rule", res.Insight.Rule,
	)
	return res, nil
}

func (s *Service) logOnce(ctx context.Context, userID string, req LogRequest, external domain.ContextLabels) (*LogResult, error) {
	state, err := s.loadOrInit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Timezone != "" {
		state.Timezone = req.Timezone
	}
	loc := state.Location()
	day := domain.CalendarDay(req.OccurredAt, loc)
	timeOfDay := domain.TimeOfDayFor(req.OccurredAt.In(loc).Hour())

	dayTotal, err := s.store.DailyTotal(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	dayTotal += req.Amount

	raw := req.Signals
	amount := req.Amount
	raw.Amount = &amount
	if raw.WeeklyLogCount == nil {
		// Trailing week ending at this event, the event included.
		weekly, err := s.store.CountEventsBetween(ctx, userID, req.OccurredAt.Add(-7*24*time.Hour), req.OccurredAt)
		if err != nil {
			return nil, err
		}
		weekly++
		raw.WeeklyLogCount = &weekly
	}
	labels := insight.Merge(insight.Classify(raw), external)

	next, change := engagement.UpdateStreak(state, req.OccurredAt, loc)
	next.TotalEvents++
	next.Level = engagement.LevelOf(next.XP)
	next.UnlockedMilestones = domain.NewMilestoneSet(state.UnlockedMilestones.Days()...)
	achievement := engagement.CheckMilestone(next.CurrentStreak, &next.UnlockedMilestones)

	history := insight.NewHistory(s.cfg.HistorySize, state.RecentInsights...)
	chosen := insight.SelectInsight(insight.Context{TimeOfDay: timeOfDay, Labels: labels}, s.rng, history)
	message := insight.SelectMessage(insight.MessageContext{
		Streak:     next.CurrentStreak,
		Labels:     labels,
		DailyTotal: &dayTotal,
	}, s.rng, history)
	next.RecentInsights = history.Keys()

	now := s.now()
	ev := domain.LoggedEvent{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      req.Amount,
		OccurredAt:  req.OccurredAt,
		Day:         day,
		TimeOfDay:   timeOfDay,
		Labels:      labels,
		InsightRule: chosen.Rule,
		CreatedAt:   now,
	}

	version, err := s.store.RecordEvent(ctx, ev, next)
	if err != nil {
		return nil, err
	}
	next.Version = version
	next.UpdatedAt = now

	return &LogResult{
		Event:        ev,
		State:        viewOf(next),
		StreakChange: change,
		Achievement:  achievement,
		Insight:      chosen,
		Message:      message,
	}, nil
}

// CompleteAction marks an event's corrective action done and awards a
// variable XP reward. Completing the same event again is a no-op reported
// through AlreadyCompleted. A zero at means now.
func (s *Service) CompleteAction(ctx context.Context, eventID string, at time.Time) (*CompletionResult, error) {
	if at.IsZero() {
		at = s.now()
	}
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(ev.UserID)
	defer unlock()

	res := &CompletionResult{EventID: eventID}
	err = s.withRetry(ctx, ev.UserID, func() error {
		state, err := s.loadOrInit(ctx, ev.UserID)
		if err != nil {
			return err
		}

		amount := engagement.DrawReward(s.rng)
		next, leveledUp, err := engagement.AwardXP(state, amount)
		if err != nil {
			return err
		}
		entry := domain.XPEntry{
			UserID:    ev.UserID,
			EventID:   eventID,
			Amount:    amount,
			Source:    domain.XPSourceCorrectiveAction,
			Balance:   next.XP,
			CreatedAt: at,
		}

		version, err := s.store.CompleteAction(ctx, eventID, at, next, entry)
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			res.AlreadyCompleted = true
			res.State = viewOf(state)
			return nil
		}
		if err != nil {
			return err
		}
		next.Version = version
		res.State = viewOf(next)
		res.Awarded = amount
		res.LeveledUp = leveledUp
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyCompleted {
		metrics.CorrectiveActions.WithLabelValues("duplicate").Inc()
		s.log.Debug("corrective action already completed", "event_id", eventID)
		return res, nil
	}
	metrics.CorrectiveActions.WithLabelValues("awarded").Inc()
	metrics.XPAwarded.WithLabelValues(strconv.FormatInt(res.Awarded, 10)).Add(float64(res.Awarded))
	if res.LeveledUp {
		metrics.LevelUps.Inc()
		s.log.Info("level up", "user_id", ev.UserID, "level", res.State.Level)
	}
	s.log.Debug("corrective action completed",
		"user_id", ev.UserID,
		"event_id", eventID,
		"xp", res.Awarded,
		"total_xp", res.State.XP,
	)
	return res, nil
}

// State returns a user's current record with derived level progress.
func (s *Service) State(ctx context.Context, userID string) (StateView, error) {
	st, err := s.store.LoadState(ctx, userID)
	if err != nil {
		return StateView{}, err
	}
	return viewOf(st), nil
}

// Events returns a user's recent events, newest first.
func (s *Service) Events(ctx context.Context, userID string, limit int) ([]domain.LoggedEvent, error) {
	return s.store.ListEvents(ctx, userID, limit)
}

// XPHistory returns a user's recent XP ledger entries, newest first.
func (s *Service) XPHistory(ctx context.Context, userID string, limit int) ([]domain.XPEntry, error) {
	return s.store.XPHistory(ctx, userID, limit)
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (s *Service) loadOrInit(ctx context.Context, userID string) (domain.GamificationState, error) {
	st, err := s.store.LoadState(ctx, userID)
	if errors.Is(err, domain.ErrStateNotFound) {
		return domain.NewGamificationState(userID, s.cfg.DefaultTimezone), nil
	}
	if err != nil {
		return st, err
	}
	st.Level = engagement.LevelOf(st.XP)
	return st, nil
}

// withRetry reruns fn while the store reports a version conflict, which
// happens when another process wrote the same user in between.
func (s *Service) withRetry(ctx context.Context, userID string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn()
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		metrics.StateConflicts.Inc()
		s.log.Warn("state version conflict, retrying", "user_id", userID, "attempt", attempt+1)
	}
	return err
}

// externalLabels stores fresh overrides in the cache, or falls back to the
// cached ones. Cache failures only cost context, never the log.
func (s *Service) externalLabels(ctx context.Context, userID string, supplied domain.ContextLabels) domain.ContextLabels {
	if s.cache == nil {
		return supplied
	}
	if !supplied.IsZero() {
		if err := s.cache.Put(ctx, userID, supplied, s.cfg.CacheTTL); err != nil {
			s.log.Warn("cache context labels", "user_id", userID, "error", err)
		}
		return supplied
	}

	cached, err := s.cache.Get(ctx, userID)
	switch {
	case err == nil:
		metrics.CacheResults.WithLabelValues("hit").Inc()
		return cached
	case errors.Is(err, domain.ErrCacheMiss):
		metrics.CacheResults.WithLabelValues("miss").Inc()
	default:
		metrics.CacheResults.WithLabelValues("error").Inc()
		s.log.Warn("read cached context labels", "user_id", userID, "error", err)
	}
	return domain.ContextLabels{}
}
