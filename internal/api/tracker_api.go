package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sugarstreak/sugarstreak/internal/app/tracker"
	"github.com/sugarstreak/sugarstreak/internal/domain"
)

// logEventRequest is the body of POST /api/users/{userID}/events.
type logEventRequest struct {
	Amount     float64              `json:"amount"`
	OccurredAt *time.Time           `json:"occurred_at,omitempty"`
	Timezone   string               `json:"timezone,omitempty"`
	Signals    domain.RawSignals    `json:"signals"`
	Labels     domain.ContextLabels `json:"labels"`
}

// completeRequest is the optional body of POST /api/events/{eventID}/complete.
type completeRequest struct {
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (s *Server) handleLogEvent(w http.ResponseWriter, r *http.Request) {
	var req logEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	occurredAt := s.now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	res, err := s.tracker.LogEvent(r.Context(), chi.URLParam(r, "userID"), tracker.LogRequest{
		Amount:     req.Amount,
		OccurredAt: occurredAt,
		Signals:    req.Signals,
		Labels:     req.Labels,
		Timezone:   req.Timezone,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	var at time.Time
	if req.CompletedAt != nil {
		at = *req.CompletedAt
	}

	res, err := s.tracker.CompleteAction(r.Context(), chi.URLParam(r, "eventID"), at)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	view, err := s.tracker.State(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.tracker.Events(r.Context(), chi.URLParam(r, "userID"), queryLimit(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if events == nil {
		events = []domain.LoggedEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (s *Server) handleXPHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.tracker.XPHistory(r.Context(), chi.URLParam(r, "userID"), queryLimit(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.XPEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// queryLimit reads ?limit=, clamped to [1, 200] with 50 as default.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 50
	}
	if n > 200 {
		return 200
	}
	return n
}
