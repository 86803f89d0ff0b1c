package services

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// ScoreBreakdown is the score with the points it was derived from.
type ScoreBreakdown struct {
	Score         int `json:"score"`
	OverduePoints int `json:"overdue_points"`
	TodayPoints   int `json:"today_points"`
	OverdueCount  int `json:"overdue_count"`
	TodayCount    int `json:"today_count"`
}

// ScoringEngine computes the daily score and activity tallies.
type ScoringEngine struct {
	aggregator *Aggregator
	activity   task.ActivityLog
	karma      task.KarmaSource
	loc        *time.Location
	now        Clock
}

// NewScoringEngine creates a ScoringEngine whose day window is local to loc.
func NewScoringEngine(aggregator *Aggregator, activity task.ActivityLog, karma task.KarmaSource, loc *time.Location, now Clock) *ScoringEngine {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ScoringEngine{aggregator: aggregator, activity: activity, karma: karma, loc: loc, now: now}
}

// Breakdown queries both task sets and scores them.
func (s *ScoringEngine) Breakdown(ctx context.Context) (ScoreBreakdown, error) {
	overdue, err := s.aggregator.Overdue(ctx)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	today, err := s.aggregator.Today(ctx)
	if err != nil {
		return ScoreBreakdown{}, err
	}

	op, tp := task.Points(overdue), task.Points(today)
	return ScoreBreakdown{
		Score:         task.Score(op, tp),
		OverduePoints: op,
		TodayPoints:   tp,
		OverdueCount:  len(overdue),
		TodayCount:    len(today),
	}, nil
}

// Point returns the score in [0, 100].
func (s *ScoringEngine) Point(ctx context.Context) (int, error) {
	b, err := s.Breakdown(ctx)
	if err != nil {
		return 0, err
	}
	return b.Score, nil
}

// ActivityCounts tallies today's added, completed and updated events.
func (s *ScoringEngine) ActivityCounts(ctx context.Context) (task.ActivityCounts, error) {
	events, err := s.activity.Recent(ctx)
	if err != nil {
		return task.ActivityCounts{}, fmt.Errorf("fetch activity: %w", err)
	}
	return task.CountActivity(events, task.DayWindowAt(s.now(), s.loc)), nil
}

// KarmaTrend passes the backend's trend through.
func (s *ScoringEngine) KarmaTrend(ctx context.Context) (string, error) {
	trend, err := s.karma.KarmaTrend(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch karma: %w", err)
	}
	return trend, nil
}

// Window returns the current local-day window.
func (s *ScoringEngine) Window() task.DayWindow {
	return task.DayWindowAt(s.now(), s.loc)
}
