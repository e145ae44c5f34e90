package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sugarstreak/sugarstreak/internal/api"
	"github.com/sugarstreak/sugarstreak/internal/app/tracker"
	"github.com/sugarstreak/sugarstreak/internal/health"
	"github.com/sugarstreak/sugarstreak/internal/infra/metrics"
	"github.com/sugarstreak/sugarstreak/internal/infra/redis"
	"github.com/sugarstreak/sugarstreak/internal/infra/sqlite"
	"github.com/sugarstreak/sugarstreak/internal/logger"
)

// LabelCache is a context label cache the daemon can maintain.
type LabelCache interface {
	tracker.LabelCache
	health.Pinger
	Purge(ctx context.Context) (int64, error)
}

// Daemon is the sugarstreak runtime. It wires together all services.
type Daemon struct {
	Config  Config
	Log     *logger.Logger
	DB      *sqlite.DB
	Cache   LabelCache
	Tracker *tracker.Service
	Health  *health.Checker
	Server  *api.Server

	closers []func() error
}

// New creates a Daemon from the on-disk configuration.
func New(log *logger.Logger) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, log)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, log *logger.Logger) (*Daemon, error) {
	if log == nil {
		log = logger.Nop()
	}
	d := &Daemon{Config: cfg, Log: log.With("component", "daemon")}

	// Open SQLite
	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	d.DB = db
	d.closers = append(d.closers, db.Close)

	// Context label cache
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := redis.Open(context.Background(), redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		d.Cache = rc
		d.closers = append(d.closers, rc.Close)
	default:
		d.Cache = sqlite.NewLabelCache(db)
	}

	d.Tracker = tracker.New(db, d.Cache, tracker.Config{
		DefaultTimezone: cfg.Tracker.Timezone,
		HistorySize:     cfg.Tracker.HistorySize,
		MaxRetries:      cfg.Tracker.MaxRetries,
		CacheTTL:        cfg.Cache.TTL.Duration,
		Seed:            cfg.Tracker.Seed,
	}, log)

	d.Health = health.NewChecker(db, d.Cache)

	srv := api.NewServer(d.Tracker, log)
	srv.SetHealth(d.Health)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Close releases storage and cache connections.
func (d *Daemon) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// PurgeCache removes expired label cache entries.
func (d *Daemon) PurgeCache(ctx context.Context) (int64, error) {
	n, err := d.Cache.Purge(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.CachePurged.Add(float64(n))
		d.Log.Debug("purged expired context labels", "count", n)
	}
	return n, nil
}

// startScheduler registers the periodic maintenance jobs.
func (d *Daemon) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(positive(d.Config.Cache.PurgeInterval.Duration, 15*time.Minute)),
		gocron.NewTask(func() {
			if _, err := d.PurgeCache(ctx); err != nil {
				d.Log.Warn("label cache purge failed", "error", err)
			}
		}),
		gocron.WithName("label-cache-purge"),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule cache purge: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(positive(d.Config.Health.Interval.Duration, time.Minute)),
		gocron.NewTask(func() {
			d.Health.RunOnce(ctx)
			if !d.Health.IsHealthy() {
				d.Log.Warn("health check failing", "checks", d.Health.Statuses())
			}
		}),
		gocron.WithName("health-check"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule health check: %w", err)
	}

	sched.Start()
	return sched, nil
}

// Serve starts the HTTP server and the scheduler, and blocks until ctx is
// cancelled or the process receives SIGINT/SIGTERM.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := d.startScheduler(ctx)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Log.Info("api listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		d.Log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := sched.Shutdown(); err != nil {
			d.Log.Warn("scheduler shutdown", "error", err)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if cerr := d.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func positive(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
