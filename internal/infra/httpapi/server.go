package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"student_outreach_engine/internal/app"
	"student_outreach_engine/internal/domain/campaign"
	"student_outreach_engine/internal/domain/dispatch"
	"student_outreach_engine/internal/domain/recipient"
)

const defaultPendingLimit = 20

// Server is the operator-facing HTTP surface: scheduler status, manual tick
// trigger, pending queue inspection, and the public unsubscribe link target.
type Server struct {
	engine      *app.Engine
	dispatches  dispatch.Repository
	campaigns   campaign.Repository
	unsubscribe *app.UnsubscribeService
	logger      *logrus.Logger
}

func NewServer(
	engine *app.Engine,
	dr dispatch.Repository,
	cr campaign.Repository,
	unsub *app.UnsubscribeService,
	logger *logrus.Logger,
) *Server {
	return &Server{
		engine:      engine,
		dispatches:  dr,
		campaigns:   cr,
		unsubscribe: unsub,
		logger:      logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/scheduler", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/trigger", s.handleTrigger)
		r.Get("/pending", s.handlePending)
	})
	r.Get("/unsubscribe/{id}", s.handleUnsubscribe)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.dispatches.CountByStatus(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to count dispatch records")
		return
	}
	enabled, err := s.campaigns.ListEnabled(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to list enabled campaigns")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"current_time": time.Now().Format(time.RFC3339),
		"dispatch_records": map[string]int{
			"pending": counts[dispatch.StatusScheduled],
			"sent":    counts[dispatch.StatusSent],
			"failed":  counts[dispatch.StatusFailed],
			"blocked": counts[dispatch.StatusBlocked],
		},
		"enabled_campaigns": len(enabled),
		"last_tick":         s.engine.LastTick(),
	})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.RunTick(r.Context())
	if err == app.ErrTickInProgress {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.internalError(w, err, "manual tick failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "scheduler tick executed",
		"result":  result,
	})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	limit := defaultPendingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	records, err := s.dispatches.ListScheduled(r.Context(), limit)
	if err != nil {
		s.internalError(w, err, "failed to list scheduled records")
		return
	}

	now := time.Now()
	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		items = append(items, map[string]any{
			"id":                 rec.ID,
			"recipient_id":       rec.RecipientID,
			"campaign_id":        rec.CampaignID,
			"trigger_context_id": rec.TriggerContextID,
			"channel":            rec.Channel,
			"scheduled_for":      rec.ScheduledFor.Format(time.RFC3339),
			"is_due":             !rec.ScheduledFor.After(now),
			"attempt_count":      rec.AttemptCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(items), "items": items})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid recipient id"})
		return
	}
	token := r.URL.Query().Get("token")

	err = s.unsubscribe.Process(r.Context(), id, token)
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "you have been unsubscribed"})
	case app.ErrBadUnsubscribeToken:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid or expired link"})
	case recipient.ErrNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipient not found"})
	default:
		s.internalError(w, err, "unsubscribe failed")
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	s.logger.WithError(err).Error(msg)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
