package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/briefing"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/services"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var seoul = mustLocation("Asia/Seoul")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type stubSets struct {
	overdue []*task.Task
	today   []*task.Task
}

func (s stubSets) Overdue(context.Context) ([]*task.Task, error) { return s.overdue, nil }
func (s stubSets) Today(context.Context) ([]*task.Task, error)   { return s.today, nil }

type stubActivity struct{ counts task.ActivityCounts }

func (s stubActivity) ActivityCounts(context.Context) (task.ActivityCounts, error) {
	return s.counts, nil
}

func (s stubActivity) Window() task.DayWindow {
	start := time.Date(2026, 10, 18, 0, 0, 0, 0, seoul)
	return task.DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

type stubKarma string

func (k stubKarma) KarmaTrend(context.Context) (string, error) { return string(k), nil }

type stubScorer struct{ breakdown services.ScoreBreakdown }

func (s stubScorer) Breakdown(context.Context) (services.ScoreBreakdown, error) {
	return s.breakdown, nil
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, description string) (services.Match, bool, error) {
	args := m.Called(ctx, description)
	return args.Get(0).(services.Match), args.Bool(1), args.Error(2)
}

type mockCompleter struct{ mock.Mock }

func (m *mockCompleter) Apply(ctx context.Context, taskID string, assigned *int, logged int) (services.CompletionResult, error) {
	args := m.Called(ctx, taskID, assigned, logged)
	return args.Get(0).(services.CompletionResult), args.Error(1)
}

type stubSweeper struct{ result services.SweepResult }

func (s stubSweeper) Sweep(context.Context) (services.SweepResult, error) { return s.result, nil }

type memoryHistory struct {
	history.NopRepository
	snapshots []history.ScoreSnapshot
}

func (h *memoryHistory) SaveSnapshot(_ context.Context, s history.ScoreSnapshot) error {
	h.snapshots = append(h.snapshots, s)
	return nil
}

func (h *memoryHistory) ListSnapshots(context.Context, int) ([]history.ScoreSnapshot, error) {
	return h.snapshots, nil
}

func fixtureSets() stubSets {
	at := time.Date(2026, 10, 18, 1, 30, 0, 0, time.UTC)
	return stubSets{
		overdue: []*task.Task{{ID: "1", Content: "30분 Write report", Priority: 3}},
		today: []*task.Task{
			{ID: "2", Content: "30분 Standup", DueDateUTC: &at, DateString: "10월 18일 10:30"},
			{ID: "3", Content: "call mom"},
		},
	}
}

func setupApp(t *testing.T, resolver *mockResolver, completer *mockCompleter) *memoryHistory {
	t.Helper()

	sets := fixtureSets()
	rules := task.NewRules(task.DurationPolicy{EveryDay: 30, EveryWeekday: 60, SomeWeekday: 90})
	activity := stubActivity{counts: task.ActivityCounts{Added: 2, Completed: 1, Updated: 4}}
	hist := &memoryHistory{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	SetApp(&App{
		ReconcileTimeEntryHandler: commands.NewReconcileTimeEntryHandler(resolver, completer, nil, hist, nil, logger),
		SweepOverdueHandler: commands.NewSweepOverdueHandler(stubSweeper{result: services.SweepResult{
			Day:      time.Date(2026, 10, 18, 0, 0, 0, 0, seoul),
			Deferred: []services.DeferredTask{{ID: "1", Content: "30분 Write report", Normalized: true}},
		}}, nil, nil, hist, nil, logger),
		ComputeScoreHandler: queries.NewComputeScoreHandler(stubScorer{breakdown: services.ScoreBreakdown{
			Score: 94, OverduePoints: 4, TodayPoints: 2, OverdueCount: 1, TodayCount: 2,
		}}),
		ActivityCountsHandler: queries.NewActivityCountsHandler(activity),
		ScoreHistoryHandler:   queries.NewScoreHistoryHandler(hist),
		Briefing: briefing.NewService(briefing.Dependencies{
			Sets:     sets,
			Activity: activity,
			Karma:    stubKarma("up"),
			History:  hist,
			Rules:    rules,
			Location: seoul,
			Logger:   logger,
		}),
		Health: observability.NewHealthRegistry(),
	})
	t.Cleanup(func() { SetApp(nil) })
	return hist
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestScheduleCmd(t *testing.T) {
	setupApp(t, nil, nil)

	out, err := runCmd(t, scheduleCmd)
	require.NoError(t, err)

	assert.Contains(t, out, "Overdue: 1 task(s)")
	assert.Contains(t, out, "Today:   2 task(s)")
	assert.Contains(t, out, "Karma:   up")
	assert.Contains(t, out, "10:30   30분 Standup")
	assert.NotContains(t, out, "call mom")
}

func TestFeedbackCmd_StoresSnapshot(t *testing.T) {
	hist := setupApp(t, nil, nil)

	out, err := runCmd(t, feedbackCmd)
	require.NoError(t, err)

	assert.Contains(t, out, "2026-10-18")
	assert.Contains(t, out, "Open:      3")
	assert.Contains(t, out, "Score:     94")
	assert.Contains(t, out, "Updated:   4")
	require.Len(t, hist.snapshots, 1)
	assert.Equal(t, 94, hist.snapshots[0].Score)
}

func TestReconcileCmd(t *testing.T) {
	t.Run("partial progress", func(t *testing.T) {
		resolver := new(mockResolver)
		completer := new(mockCompleter)
		setupApp(t, resolver, completer)

		tk := &task.Task{ID: "1", Content: "30분 Write report"}
		resolver.On("Resolve", mock.Anything, "Work - Write report").
			Return(services.Match{Task: tk, Key: "Write report", Assigned: 30, HasAssignment: true}, true, nil)
		completer.On("Apply", mock.Anything, "1", mock.AnythingOfType("*int"), 10).
			Return(services.CompletionResult{TaskID: "1", Content: "20분 Write report", Outcome: services.OutcomeProgressed, Logged: 10, Remaining: 20}, nil)

		minutes = 10
		out, err := runCmd(t, reconcileCmd, "Work", "-", "Write", "report")
		require.NoError(t, err)

		assert.Contains(t, out, "progressed: 20분 Write report")
		assert.Contains(t, out, "Remaining: 20 min")
		completer.AssertExpectations(t)
	})

	t.Run("no match", func(t *testing.T) {
		resolver := new(mockResolver)
		completer := new(mockCompleter)
		setupApp(t, resolver, completer)

		resolver.On("Resolve", mock.Anything, "lunch").Return(services.Match{Key: "lunch"}, false, nil)

		minutes = 45
		out, err := runCmd(t, reconcileCmd, "lunch")
		require.NoError(t, err)

		assert.Contains(t, out, `No open task matches "lunch".`)
		completer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("negative minutes", func(t *testing.T) {
		setupApp(t, new(mockResolver), new(mockCompleter))

		minutes = -5
		_, err := runCmd(t, reconcileCmd, "Write report")
		assert.ErrorIs(t, err, commands.ErrNegativeMinutes)
	})
}

func TestScoreAndActivityCmd(t *testing.T) {
	setupApp(t, nil, nil)

	out, err := runCmd(t, scoreCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 94")
	assert.Contains(t, out, "Overdue: 1 task(s), 4 point(s)")

	out, err = runCmd(t, activityCmd)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18: added 2, completed 1, updated 4\n", out)
}

func TestSweepCmd(t *testing.T) {
	setupApp(t, nil, nil)

	out, err := runCmd(t, sweepCmd)
	require.NoError(t, err)

	assert.Contains(t, out, "Moved 1 overdue task(s) to 2026-10-18.")
	assert.Contains(t, out, "30분 Write report (duration reset)")
}

func TestHistoryCmd(t *testing.T) {
	setupApp(t, nil, nil)

	out, err := runCmd(t, historyCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded.")

	_, err = runCmd(t, feedbackCmd)
	require.NoError(t, err)

	out, err = runCmd(t, historyCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "2026-10-18   94")
}

func TestScoreCmd_JSON(t *testing.T) {
	setupApp(t, nil, nil)
	require.NoError(t, rootCmd.PersistentFlags().Set("json", "true"))
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("json", "false") })

	out, err := runCmd(t, scoreCmd)
	require.NoError(t, err)

	var got services.ScoreBreakdown
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 94, got.Score)
}

func TestHealthCmd(t *testing.T) {
	setupApp(t, nil, nil)
	GetApp().Health.Register("todoist", observability.PingChecker("todoist", true, func(context.Context) error { return nil }))

	out, err := runCmd(t, healthCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "status: healthy")
	assert.Contains(t, out, "todoist")
}

func TestRootCmd_LogsCommandLifecycle(t *testing.T) {
	setupApp(t, nil, nil)

	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"score"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 2)

	var start, end map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &start))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &end))
	assert.Equal(t, "command start", start["msg"])
	assert.Equal(t, "command end", end["msg"])
	assert.Equal(t, "taskpulse score", end["command"])
	assert.NotEmpty(t, start["correlation_id"])
	assert.Equal(t, start["correlation_id"], end["correlation_id"])
	assert.Contains(t, end, "duration_ms")
}

func TestRequireApp(t *testing.T) {
	SetApp(nil)
	_, err := RequireApp()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, versionCmd)
	require.NoError(t, err)
	assert.Equal(t, "taskpulse dev (commit none, built unknown)\n", out)

	require.NoError(t, rootCmd.PersistentFlags().Set("json", "true"))
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("json", "false") })

	out, err = runCmd(t, versionCmd)
	require.NoError(t, err)
	var info BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
}
