package briefing

import (
	"context"
	"errors"
	"testing"
	"time"

	calendarApp "github.com/felixgeelhaar/taskpulse/internal/calendar/application"
	"github.com/felixgeelhaar/taskpulse/internal/notification"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubSets struct {
	overdue, today []*task.Task
	err            error
}

func (s stubSets) Overdue(context.Context) ([]*task.Task, error) { return s.overdue, s.err }
func (s stubSets) Today(context.Context) ([]*task.Task, error)   { return s.today, s.err }

type stubActivity struct {
	counts task.ActivityCounts
	window task.DayWindow
	err    error
}

func (s stubActivity) ActivityCounts(context.Context) (task.ActivityCounts, error) {
	return s.counts, s.err
}
func (s stubActivity) Window() task.DayWindow { return s.window }

type stubKarma string

func (k stubKarma) KarmaTrend(context.Context) (string, error) { return string(k), nil }

type stubNames map[string]string

func (n stubNames) LabelName(_ context.Context, id string) (string, error) { return id, nil }
func (n stubNames) ProjectName(_ context.Context, id string) (string, error) {
	if name, ok := n[id]; ok {
		return name, nil
	}
	return "", task.ErrNameNotFound
}

type recordingNotifier struct {
	messages []notification.Message
	err      error
}

func (r *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	r.messages = append(r.messages, msg)
	return r.err
}
func (r *recordingNotifier) Name() string { return "recording" }

type mockCalendar struct {
	mock.Mock
}

func (m *mockCalendar) Publish(ctx context.Context, events []calendarApp.TimedEvent) (*calendarApp.PublishResult, error) {
	args := m.Called(ctx, events)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendarApp.PublishResult), args.Error(1)
}

type mockHistory struct {
	mock.Mock
	history.NopRepository
}

func (m *mockHistory) SaveSnapshot(ctx context.Context, s history.ScoreSnapshot) error {
	return m.Called(ctx, s).Error(0)
}

func testRules() task.Rules {
	return task.NewRules(task.DurationPolicy{EveryDay: 30, EveryWeekday: 60, SomeWeekday: 90})
}

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func TestService_Schedule(t *testing.T) {
	ctx := context.Background()
	loc := seoul(t)
	meeting := time.Date(2026, 10, 18, 1, 30, 0, 0, time.UTC)
	workout := time.Date(2026, 10, 17, 22, 0, 0, 0, time.UTC)
	sets := stubSets{
		overdue: []*task.Task{{ID: "o1"}, {ID: "o2"}},
		today: []*task.Task{
			{ID: "1", Content: "팀 회의", DueDateUTC: &meeting, DateString: "10월 18일 10:30", ProjectID: "p1", Priority: 4},
			{ID: "2", Content: "독서", DateString: "10월 18일"},
			{ID: "3", Content: "30분 운동", DueDateUTC: &workout, DateString: "매일 30분", ProjectID: "p2"},
			{ID: "4", Content: "no clock", DueDateUTC: &meeting, DateString: "오늘"},
		},
	}

	t.Run("reports timed tasks and publishes them", func(t *testing.T) {
		notifier := &recordingNotifier{}
		cal := new(mockCalendar)
		cal.On("Publish", ctx, mock.MatchedBy(func(events []calendarApp.TimedEvent) bool {
			return len(events) == 2 &&
				events[0].TaskID == "1" && events[0].Start.Equal(meeting) &&
				events[0].End.Sub(events[0].Start) == EventLength &&
				events[0].Description == "Work"
		})).Return(&calendarApp.PublishResult{Created: 2}, nil)

		svc := NewService(Dependencies{
			Sets: sets, Karma: stubKarma("up"), Names: stubNames{"p1": "Work"},
			Calendar: cal, Notifier: notifier, Rules: testRules(), Location: loc,
			Logger: observability.DiscardLogger(),
		})
		report, err := svc.Schedule(ctx, "#daily")

		require.NoError(t, err)
		assert.Equal(t, 2, report.OverdueCount)
		assert.Equal(t, 4, report.TodayCount)
		require.Len(t, report.Timed, 2)
		assert.Equal(t, "10:30", report.Timed[0].Time)
		assert.Equal(t, "Work", report.Timed[0].Project)
		assert.Equal(t, "07:00", report.Timed[1].Time)
		assert.Empty(t, report.Timed[1].Project)
		assert.Equal(t, "up", report.KarmaTrend)
		assert.Equal(t, 2, report.Calendar.Created)

		require.Len(t, notifier.messages, 1)
		msg := notifier.messages[0]
		assert.Equal(t, "#daily", msg.Channel)
		assert.Contains(t, msg.Text, "Overdue: 2 task(s)")
		assert.Contains(t, msg.Text, "Karma trend: up")
		require.Len(t, msg.Attachments, 2)
		assert.Equal(t, "[Work] 팀 회의", msg.Attachments[0].Title)
		assert.Equal(t, "#d1453b", msg.Attachments[0].Color)
		cal.AssertExpectations(t)
	})

	t.Run("calendar and notifier failures are logged only", func(t *testing.T) {
		cal := new(mockCalendar)
		cal.On("Publish", ctx, mock.Anything).Return(nil, errors.New("caldav down"))

		svc := NewService(Dependencies{
			Sets: sets, Calendar: cal, Notifier: &recordingNotifier{err: errors.New("slack down")},
			Rules: testRules(), Location: loc, Logger: observability.DiscardLogger(),
		})
		report, err := svc.Schedule(ctx, "")

		require.NoError(t, err)
		assert.Nil(t, report.Calendar)
	})

	t.Run("backend failure is returned not rendered", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc := NewService(Dependencies{
			Sets: stubSets{err: task.ErrBackendUnavailable}, Notifier: notifier,
			Rules: testRules(), Logger: observability.DiscardLogger(),
		})

		_, err := svc.Schedule(ctx, "")

		assert.ErrorIs(t, err, task.ErrBackendUnavailable)
		assert.Empty(t, notifier.messages)
	})
}

func TestService_Feedback(t *testing.T) {
	ctx := context.Background()
	loc := seoul(t)
	start := time.Date(2026, 10, 18, 0, 0, 0, 0, loc)
	now := func() time.Time { return time.Date(2026, 10, 18, 21, 0, 0, 0, loc) }
	sets := stubSets{
		overdue: []*task.Task{{Priority: 1}},
		today:   []*task.Task{{Priority: 0}, {Priority: 2}},
	}
	activity := stubActivity{
		counts: task.ActivityCounts{Added: 3, Completed: 2, Updated: 1},
		window: task.DayWindow{Start: start, End: start.AddDate(0, 0, 1)},
	}

	t.Run("records snapshot and notifies", func(t *testing.T) {
		notifier := &recordingNotifier{}
		hist := new(mockHistory)
		hist.On("SaveSnapshot", ctx, mock.MatchedBy(func(s history.ScoreSnapshot) bool {
			return s.DayKey() == "2026-10-18" && s.Score == 94 && s.OverdueCount == 1 &&
				s.TodayCount == 2 && s.Added == 3 && s.Completed == 2 && s.Updated == 1
		})).Return(nil)

		svc := NewService(Dependencies{
			Sets: sets, Activity: activity, Notifier: notifier, History: hist,
			Rules: testRules(), Location: loc, Now: now, Logger: observability.DiscardLogger(),
		})
		report, err := svc.Feedback(ctx, "")

		require.NoError(t, err)
		assert.Equal(t, 3, report.Open)
		assert.Equal(t, 94, report.Score)
		assert.Equal(t, "2026-10-18", report.Day)
		require.Len(t, notifier.messages, 1)
		assert.Contains(t, notifier.messages[0].Text, "Added 3, completed 2, updated 1")
		hist.AssertExpectations(t)
	})

	t.Run("activity failure aborts", func(t *testing.T) {
		notifier := &recordingNotifier{}
		hist := new(mockHistory)
		svc := NewService(Dependencies{
			Sets: sets, Activity: stubActivity{err: task.ErrBackendUnavailable},
			Notifier: notifier, History: hist, Rules: testRules(), Logger: observability.DiscardLogger(),
		})

		_, err := svc.Feedback(ctx, "")

		assert.ErrorIs(t, err, task.ErrBackendUnavailable)
		assert.Empty(t, notifier.messages)
		hist.AssertNotCalled(t, "SaveSnapshot", mock.Anything, mock.Anything)
	})

	t.Run("history failure does not abort", func(t *testing.T) {
		hist := new(mockHistory)
		hist.On("SaveSnapshot", ctx, mock.Anything).Return(errors.New("locked"))
		svc := NewService(Dependencies{
			Sets: sets, Activity: activity, History: hist,
			Rules: testRules(), Now: now, Logger: observability.DiscardLogger(),
		})

		_, err := svc.Feedback(ctx, "")

		assert.NoError(t, err)
	})
}

func TestService_RemainingAndRepeatCount(t *testing.T) {
	ctx := context.Background()
	sets := stubSets{today: []*task.Task{
		{ID: "1", Content: "30분 운동", DateString: "매일"},
		{ID: "2", Content: "독서"},
		{ID: "3", Content: "0분 명상"},
	}}
	notifier := &recordingNotifier{}
	svc := NewService(Dependencies{Sets: sets, Notifier: notifier, Rules: testRules(), Logger: observability.DiscardLogger()})

	report, err := svc.Remaining(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Count)
	for _, l := range report.Tasks {
		assert.True(t, l.IsAnyTime())
	}
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "3 task(s) left today", notifier.messages[0].Text)

	count, err := svc.RepeatTaskCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
