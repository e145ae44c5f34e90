// Package api provides the HTTP server for sugarstreak: event logging,
// corrective action completion and read access to gamification state.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sugarstreak/sugarstreak/internal/app/tracker"
	"github.com/sugarstreak/sugarstreak/internal/domain"
	"github.com/sugarstreak/sugarstreak/internal/health"
	"github.com/sugarstreak/sugarstreak/internal/infra/metrics"
	"github.com/sugarstreak/sugarstreak/internal/logger"
)

// Server is the sugarstreak HTTP API server.
type Server struct {
	tracker        *tracker.Service
	health         *health.Checker
	log            *logger.Logger
	metricsEnabled bool
	corsOrigins    []string
	version        string
	now            func() time.Time
}

// NewServer creates a new API server.
func NewServer(svc *tracker.Service, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		tracker:     svc,
		log:         log.With("component", "api"),
		corsOrigins: []string{"*"},
		version:     "dev",
		now:         time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth attaches the health checker reported by /health.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// SetCORSOrigins sets the allowed browser origins.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// SetVersion sets the version reported by /api/version.
func (s *Server) SetVersion(v string) { s.version = v }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(instrument)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": s.version,
		})
	})

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Post("/events", s.handleLogEvent)
		r.Get("/events", s.handleListEvents)
		r.Get("/state", s.handleState)
		r.Get("/xp", s.handleXPHistory)
	})
	r.Post("/api/events/{eventID}/complete", s.handleComplete)

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// instrument records request latency by route pattern and status.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestLatency.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    http.StatusText(status),
		},
	})
}

// writeDomainError maps service errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEvent),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrInvalidTimezone),
		errors.Is(err, domain.ErrInvalidXP):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrStateNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
