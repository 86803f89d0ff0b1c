package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskpulse/adapter/cli"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/services"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	match services.Match
	found bool
}

func (s stubResolver) Resolve(context.Context, string) (services.Match, bool, error) {
	return s.match, s.found, nil
}

type stubCompleter struct{ result services.CompletionResult }

func (s stubCompleter) Apply(context.Context, string, *int, int) (services.CompletionResult, error) {
	return s.result, nil
}

type stubSweeper struct {
	result services.SweepResult
	err    error
}

func (s stubSweeper) Sweep(context.Context) (services.SweepResult, error) { return s.result, s.err }

type stubScorer struct{ breakdown services.ScoreBreakdown }

func (s stubScorer) Breakdown(context.Context) (services.ScoreBreakdown, error) {
	return s.breakdown, nil
}

type stubHistory struct {
	history.NopRepository
	limit int
}

func (s *stubHistory) ListSnapshots(_ context.Context, limit int) ([]history.ScoreSnapshot, error) {
	s.limit = limit
	return []history.ScoreSnapshot{{Day: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), Score: 88}}, nil
}

func newTestServer(app *cli.App) *Server {
	return NewServer(DefaultServerConfig(), NewHandler(app, "#daily", observability.DiscardLogger()), observability.DiscardLogger())
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandler_ReconcileTimeEntry(t *testing.T) {
	app := &cli.App{
		ReconcileTimeEntryHandler: commands.NewReconcileTimeEntryHandler(
			stubResolver{
				match: services.Match{Task: &task.Task{ID: "1", Content: "30분 Write report"}, Key: "Write report", Assigned: 30, HasAssignment: true},
				found: true,
			},
			stubCompleter{result: services.CompletionResult{TaskID: "1", Content: "30분 Write report", Outcome: services.OutcomeCompleted, Logged: 30}},
			nil, nil, nil, observability.DiscardLogger(),
		),
	}
	s := newTestServer(app)

	t.Run("completes matched task", func(t *testing.T) {
		rec := serve(s, http.MethodPost, "/api/v1/time-entries", `{"description":"Work - Write report","minutes":30}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var got commands.ReconcileTimeEntryResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.True(t, got.Matched)
		assert.Equal(t, "1", got.TaskID)
		assert.Equal(t, services.OutcomeCompleted, got.Outcome)
	})

	t.Run("rejects missing description", func(t *testing.T) {
		rec := serve(s, http.MethodPost, "/api/v1/time-entries", `{"minutes":30}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects negative minutes", func(t *testing.T) {
		rec := serve(s, http.MethodPost, "/api/v1/time-entries", `{"description":"Write report","minutes":-1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		rec := serve(s, http.MethodPost, "/api/v1/time-entries", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_SweepOverdue(t *testing.T) {
	t.Run("returns deferred tasks", func(t *testing.T) {
		s := newTestServer(&cli.App{
			SweepOverdueHandler: commands.NewSweepOverdueHandler(stubSweeper{result: services.SweepResult{
				Day:      time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
				Deferred: []services.DeferredTask{{ID: "1", Content: "30분 Write report"}},
			}}, nil, nil, nil, nil, observability.DiscardLogger()),
		})

		rec := serve(s, http.MethodPost, "/api/v1/sweep", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got commands.SweepOverdueResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "2026-10-18", got.Day)
		assert.Len(t, got.Deferred, 1)
	})

	t.Run("backend failure is internal error", func(t *testing.T) {
		s := newTestServer(&cli.App{
			SweepOverdueHandler: commands.NewSweepOverdueHandler(stubSweeper{err: errors.New("todoist down")},
				nil, nil, nil, nil, observability.DiscardLogger()),
		})

		rec := serve(s, http.MethodPost, "/api/v1/sweep", `{"channel":"#ops"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "todoist down")
	})
}

func TestHandler_ScoreAndHistory(t *testing.T) {
	hist := &stubHistory{}
	s := newTestServer(&cli.App{
		ComputeScoreHandler: queries.NewComputeScoreHandler(stubScorer{breakdown: services.ScoreBreakdown{Score: 94}}),
		ScoreHistoryHandler: queries.NewScoreHistoryHandler(hist),
	})

	rec := serve(s, http.MethodGet, "/api/v1/score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"score":94,"overdue_points":0,"today_points":0,"overdue_count":0,"today_count":0}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/api/v1/history?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, hist.limit)

	rec = serve(s, http.MethodGet, "/api/v1/history?limit=abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, queries.DefaultHistoryLimit, hist.limit)
}

func TestHandler_Unavailable(t *testing.T) {
	s := newTestServer(nil)

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/api/v1/time-entries"},
		{http.MethodPost, "/api/v1/sweep"},
		{http.MethodPost, "/api/v1/briefings/schedule"},
		{http.MethodGet, "/api/v1/score"},
		{http.MethodGet, "/api/v1/activity"},
		{http.MethodGet, "/api/v1/tasks"},
		{http.MethodGet, "/api/v1/tasks/labeled"},
		{http.MethodGet, "/api/v1/history"},
	} {
		t.Run(tc.target, func(t *testing.T) {
			rec := serve(s, tc.method, tc.target, "")
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Contains(t, rec.Body.String(), "unavailable")
		})
	}
}

func TestHandler_Health(t *testing.T) {
	t.Run("no registry", func(t *testing.T) {
		rec := serve(newTestServer(nil), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("critical check failing", func(t *testing.T) {
		registry := observability.NewHealthRegistry()
		registry.Register("todoist", observability.PingChecker("todoist", true, func(context.Context) error {
			return errors.New("401")
		}))

		rec := serve(newTestServer(&cli.App{Health: registry}), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestServer_CorrelationID(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))

	rec = serve(s, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
