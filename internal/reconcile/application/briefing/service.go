// Package briefing builds the morning schedule and evening feedback
// messages and delivers them to the notifier.
package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	calendarApp "github.com/felixgeelhaar/taskpulse/internal/calendar/application"
	"github.com/felixgeelhaar/taskpulse/internal/notification"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// AnyTime is the Time of a task without a time of day.
const AnyTime = "anytime"

// EventLength is the calendar slot given to each timed task.
const EventLength = 30 * time.Minute

// TaskSets is the read side of the aggregator.
type TaskSets interface {
	Overdue(ctx context.Context) ([]*task.Task, error)
	Today(ctx context.Context) ([]*task.Task, error)
}

// ActivityCounter tallies today's activity.
type ActivityCounter interface {
	ActivityCounts(ctx context.Context) (task.ActivityCounts, error)
	Window() task.DayWindow
}

// Dependencies wires a Service. Sets, Activity and Rules are required; the
// rest fall back to no-ops.
type Dependencies struct {
	Sets     TaskSets
	Activity ActivityCounter
	Karma    task.KarmaSource
	Names    task.Directory
	Calendar calendarApp.Publisher
	Notifier notification.Notifier
	History  history.Repository
	Rules    task.Rules
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// Service produces briefings.
type Service struct {
	sets     TaskSets
	activity ActivityCounter
	karma    task.KarmaSource
	names    task.Directory
	calendar calendarApp.Publisher
	notifier notification.Notifier
	history  history.Repository
	rules    task.Rules
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a new briefing Service.
func NewService(deps Dependencies) *Service {
	s := &Service{
		sets:     deps.Sets,
		activity: deps.Activity,
		karma:    deps.Karma,
		names:    deps.Names,
		calendar: deps.Calendar,
		notifier: deps.Notifier,
		history:  deps.History,
		rules:    deps.Rules,
		loc:      deps.Location,
		now:      deps.Now,
		logger:   deps.Logger,
	}
	if s.calendar == nil {
		s.calendar = calendarApp.NopPublisher{}
	}
	if s.notifier == nil {
		s.notifier = notification.NopNotifier{}
	}
	if s.history == nil {
		s.history = history.NopRepository{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// TimedTask is one line of a schedule.
type TimedTask struct {
	TaskID   string `json:"task_id"`
	Project  string `json:"project"`
	Content  string `json:"content"`
	Time     string `json:"time"`
	Priority int    `json:"priority"`

	start *time.Time
}

// IsAnyTime reports whether the task has no time of day.
func (t TimedTask) IsAnyTime() bool { return t.Time == AnyTime }

// ScheduleReport is the morning briefing.
type ScheduleReport struct {
	OverdueCount int                        `json:"overdue_count"`
	TodayCount   int                        `json:"today_count"`
	Timed        []TimedTask                `json:"timed"`
	KarmaTrend   string                     `json:"karma_trend,omitempty"`
	Calendar     *calendarApp.PublishResult `json:"calendar,omitempty"`
}

// Schedule reports the overdue and today counts, today's timed tasks and
// the karma trend, and publishes the timed tasks to the calendar.
func (s *Service) Schedule(ctx context.Context, channel string) (ScheduleReport, error) {
	overdue, err := s.sets.Overdue(ctx)
	if err != nil {
		return ScheduleReport{}, err
	}
	today, err := s.sets.Today(ctx)
	if err != nil {
		return ScheduleReport{}, err
	}
	lines, err := s.render(ctx, today)
	if err != nil {
		return ScheduleReport{}, err
	}

	report := ScheduleReport{
		OverdueCount: len(overdue),
		TodayCount:   len(today),
		Timed:        []TimedTask{},
	}
	for _, l := range lines {
		if !l.IsAnyTime() {
			report.Timed = append(report.Timed, l)
		}
	}
	if s.karma != nil {
		if report.KarmaTrend, err = s.karma.KarmaTrend(ctx); err != nil {
			return ScheduleReport{}, fmt.Errorf("fetch karma: %w", err)
		}
	}

	report.Calendar = s.publishCalendar(ctx, report.Timed)

	text := []string{
		"Today's schedule",
		fmt.Sprintf("Overdue: %d task(s)", report.OverdueCount),
		fmt.Sprintf("Today: %d task(s)", report.TodayCount),
	}
	if report.KarmaTrend != "" {
		text = append(text, "Karma trend: "+report.KarmaTrend)
	}
	s.send(ctx, notification.Message{
		Channel:     channel,
		Text:        strings.Join(text, "\n"),
		Attachments: taskAttachments(report.Timed),
	})
	return report, nil
}

// FeedbackReport is the evening briefing.
type FeedbackReport struct {
	Day      string              `json:"day"`
	Open     int                 `json:"open"`
	Score    int                 `json:"score"`
	Activity task.ActivityCounts `json:"activity"`
}

// Feedback reports the open task count and today's activity, and stores
// the day's score snapshot.
func (s *Service) Feedback(ctx context.Context, channel string) (FeedbackReport, error) {
	overdue, err := s.sets.Overdue(ctx)
	if err != nil {
		return FeedbackReport{}, err
	}
	today, err := s.sets.Today(ctx)
	if err != nil {
		return FeedbackReport{}, err
	}
	counts, err := s.activity.ActivityCounts(ctx)
	if err != nil {
		return FeedbackReport{}, err
	}

	window := s.activity.Window()
	report := FeedbackReport{
		Day:      window.Start.Format("2006-01-02"),
		Open:     len(overdue) + len(today),
		Score:    task.Score(task.Points(overdue), task.Points(today)),
		Activity: counts,
	}

	snapshot := history.ScoreSnapshot{
		Day:          window.Start,
		Score:        report.Score,
		OverdueCount: len(overdue),
		TodayCount:   len(today),
		Added:        counts.Added,
		Completed:    counts.Completed,
		Updated:      counts.Updated,
		RecordedAt:   s.now().UTC(),
	}
	if err := s.history.SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.WarnContext(ctx, "failed to save score snapshot", "day", report.Day, "error", err)
	}

	s.send(ctx, notification.Message{
		Channel: channel,
		Text: strings.Join([]string{
			"Today's feedback",
			fmt.Sprintf("Still open: %d task(s)", report.Open),
			fmt.Sprintf("Added %d, completed %d, updated %d", counts.Added, counts.Completed, counts.Updated),
			fmt.Sprintf("Score: %d", report.Score),
		}, "\n"),
	})
	return report, nil
}

// RemainingReport lists what is left of today.
type RemainingReport struct {
	Count int         `json:"count"`
	Tasks []TimedTask `json:"tasks"`
}

// Remaining reports every task still due today, timed or not.
func (s *Service) Remaining(ctx context.Context, channel string) (RemainingReport, error) {
	today, err := s.sets.Today(ctx)
	if err != nil {
		return RemainingReport{}, err
	}
	lines, err := s.render(ctx, today)
	if err != nil {
		return RemainingReport{}, err
	}

	report := RemainingReport{Count: len(lines), Tasks: lines}
	s.send(ctx, notification.Message{
		Channel:     channel,
		Text:        fmt.Sprintf("%d task(s) left today", report.Count),
		Attachments: taskAttachments(lines),
	})
	return report, nil
}

// RepeatTaskCount counts today's tasks that carry a duration annotation.
func (s *Service) RepeatTaskCount(ctx context.Context) (int, error) {
	today, err := s.sets.Today(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range today {
		if _, ok := s.rules.AssignedDuration(t); ok {
			n++
		}
	}
	return n, nil
}

func (s *Service) render(ctx context.Context, tasks []*task.Task) ([]TimedTask, error) {
	projects := map[string]string{}
	lines := make([]TimedTask, 0, len(tasks))
	for _, t := range tasks {
		project, err := s.projectName(ctx, projects, t.ProjectID)
		if err != nil {
			return nil, err
		}
		line := TimedTask{
			TaskID:   t.ID,
			Project:  project,
			Content:  t.Content,
			Time:     AnyTime,
			Priority: t.Priority,
		}
		if s.rules.IsTimed(t) {
			start := t.DueDateUTC.In(s.loc)
			line.Time = start.Format("15:04")
			line.start = &start
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) projectName(ctx context.Context, seen map[string]string, id string) (string, error) {
	if s.names == nil || id == "" {
		return "", nil
	}
	if name, ok := seen[id]; ok {
		return name, nil
	}
	name, err := s.names.ProjectName(ctx, id)
	if err != nil {
		if !isNameNotFound(err) {
			return "", err
		}
		name = ""
	}
	seen[id] = name
	return name, nil
}

func (s *Service) publishCalendar(ctx context.Context, timed []TimedTask) *calendarApp.PublishResult {
	if len(timed) == 0 {
		return nil
	}
	events := make([]calendarApp.TimedEvent, 0, len(timed))
	for _, t := range timed {
		events = append(events, calendarApp.TimedEvent{
			TaskID:      t.TaskID,
			Title:       t.Content,
			Start:       *t.start,
			End:         t.start.Add(EventLength),
			Description: t.Project,
		})
	}
	result, err := s.calendar.Publish(ctx, events)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish schedule to calendar", "error", err)
		return nil
	}
	return result
}

func (s *Service) send(ctx context.Context, msg notification.Message) {
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to send briefing",
			"notifier", s.notifier.Name(),
			"error", err,
		)
	}
}
