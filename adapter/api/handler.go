package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/taskpulse/adapter/cli"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// Handler handles reconciliation API requests.
type Handler struct {
	app     *cli.App
	channel string
	logger  *slog.Logger
}

// NewHandler creates a new handler. channel is the default notification
// channel for briefing and sweep requests.
func NewHandler(app *cli.App, channel string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if app == nil {
		app = &cli.App{}
	}
	return &Handler{app: app, channel: channel, logger: logger}
}

type timeEntryRequest struct {
	Description string `json:"description"`
	Minutes     int    `json:"minutes"`
}

type channelRequest struct {
	Channel string `json:"channel"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.app.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": string(observability.HealthStatusHealthy)})
		return
	}
	health := h.app.Health.GetOverallHealth(r.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// ReconcileTimeEntry handles POST /api/v1/time-entries
func (h *Handler) ReconcileTimeEntry(w http.ResponseWriter, r *http.Request) {
	if h.app.ReconcileTimeEntryHandler == nil {
		writeAPIError(w, ErrUnavailable)
		return
	}
	var req timeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	result, err := h.app.ReconcileTimeEntryHandler.Handle(r.Context(), commands.ReconcileTimeEntryCommand{
		Description: req.Description,
		Minutes:     req.Minutes,
	})
	if err != nil {
		h.fail(w, r, "reconcile time entry", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SweepOverdue handles POST /api/v1/sweep
func (h *Handler) SweepOverdue(w http.ResponseWriter, r *http.Request) {
	if h.app.SweepOverdueHandler == nil {
		writeAPIError(w, ErrUnavailable)
		return
	}
	req, ok := h.decodeChannel(w, r)
	if !ok {
		return
	}
	result, err := h.app.SweepOverdueHandler.Handle(r.Context(), commands.SweepOverdueCommand{Channel: req.Channel})
	if err != nil {
		h.fail(w, r, "sweep overdue tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Briefing handles POST /api/v1/briefings/{kind}
func (h *Handler) Briefing(w http.ResponseWriter, r *http.Request) {
	if h.app.Briefing == nil {
		writeAPIError(w, ErrUnavailable)
		return
	}
	req, ok := h.decodeChannel(w, r)
	if !ok {
		return
	}

	var (
		report any
		err    error
	)
	switch kind := r.PathValue("kind"); kind {
	case "schedule":
		report, err = h.app.Briefing.Schedule(r.Context(), req.Channel)
	case "feedback":
		report, err = h.app.Briefing.Feedback(r.Context(), req.Channel)
	case "remaining":
		report, err = h.app.Briefing.Remaining(r.Context(), req.Channel)
	default:
		writeError(w, http.StatusNotFound, "unknown briefing "+strconv.Quote(kind))
		return
	}
	if err != nil {
		h.fail(w, r, "build briefing", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Score handles GET /api/v1/score
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	if h.app.ComputeScoreHandler == nil {
		writeAPIError(w, ErrUnavailable)
		return
	}
	breakdown, err := h.app.ComputeScoreHandler.Handle(r.Context())
	if err != nil {
		h.fail(w, r, "compute score", err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// Activity handles GET /api/v1/activity
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	if h.app.ActivityCountsHandler == nil {
		writeAPIError(w, ErrUnavailable)
		return
	}
	counts, err := h.app.ActivityCountsHandler.Handle(r.Context())
	if err != nil {
		h.fail(w, r, "count activity", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// OpenTasks handles GET /api/v1/tasks
func (h *Handler) OpenTasks(w http.ResponseWriter, r *http.Request) {
	if h.app.ListOpenTasksHandler == nil {
		writeAPIError(w, ErrUnavailable)
		return
	}
	tasks, err := h.app.ListOpenTasksHandler.Handle(r.Context())
	if err != nil {
		h.fail(w, r, "list open tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// LabeledTasks handles GET /api/v1/tasks/labeled
func (h *Handler) LabeledTasks(w http.ResponseWriter, r *http.Request) {
	if h.app.ListLabeledHandler == nil {
		writeAPIError(w, ErrUnavailable)
		return
	}
	scope, err := queries.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tasks, err := h.app.ListLabeledHandler.Handle(r.Context(), queries.ListLabeledQuery{Scope: scope})
	if err != nil {
		h.fail(w, r, "list labeled tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// History handles GET /api/v1/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.app.ScoreHistoryHandler == nil {
		writeAPIError(w, ErrUnavailable)
		return
	}
	result, err := h.app.ScoreHistoryHandler.Handle(r.Context(), queries.ScoreHistoryQuery{
		Limit: parseIntParam(r, "limit", queries.DefaultHistoryLimit),
	})
	if err != nil {
		h.fail(w, r, "read history", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeChannel reads an optional {"channel"} body. An empty body selects
// the default channel.
func (h *Handler) decodeChannel(w http.ResponseWriter, r *http.Request) (channelRequest, bool) {
	var req channelRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return req, false
		}
	}
	if req.Channel == "" {
		req.Channel = h.channel
	}
	return req, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, commands.ErrNegativeMinutes) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "api request failed",
		"operation", op,
		"correlation_id", observability.CorrelationIDFromContext(r.Context()),
		"error", err,
	)
	writeAPIError(w, ErrInternalServer)
}

func writeAPIError(w http.ResponseWriter, e *APIError) {
	writeJSON(w, e.Status, e)
}

func parseIntParam(r *http.Request, name string, defaultValue int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
