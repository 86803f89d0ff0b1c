// Package history records daily scores and reconciliation outcomes so
// trends survive across invocations.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidSnapshot is returned when a snapshot has no day.
var ErrInvalidSnapshot = errors.New("snapshot day is required")

// ScoreSnapshot is the score and activity of one local day.
type ScoreSnapshot struct {
	Day          time.Time `json:"day"`
	Score        int       `json:"score"`
	OverdueCount int       `json:"overdue_count"`
	TodayCount   int       `json:"today_count"`
	Added        int       `json:"added"`
	Completed    int       `json:"completed"`
	Updated      int       `json:"updated"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// DayKey is the snapshot's storage key.
func (s ScoreSnapshot) DayKey() string {
	return s.Day.Format("2006-01-02")
}

// Validate checks the snapshot can be stored.
func (s ScoreSnapshot) Validate() error {
	if s.Day.IsZero() {
		return ErrInvalidSnapshot
	}
	return nil
}

// RecordKind separates completion runs from sweeps.
type RecordKind string

const (
	KindCompletion RecordKind = "completion"
	KindSweep      RecordKind = "sweep"
)

// ReconciliationRecord journals one committed engine run.
type ReconciliationRecord struct {
	ID          uuid.UUID  `json:"id"`
	Kind        RecordKind `json:"kind"`
	Description string     `json:"description"`
	TaskIDs     []string   `json:"task_ids"`
	Outcome     string     `json:"outcome"`
	Minutes     int        `json:"minutes"`
	RecordedAt  time.Time  `json:"recorded_at"`
}

// NewRecord creates a record stamped now.
func NewRecord(kind RecordKind, description, outcome string, minutes int, taskIDs ...string) ReconciliationRecord {
	return ReconciliationRecord{
		ID:          uuid.New(),
		Kind:        kind,
		Description: description,
		TaskIDs:     taskIDs,
		Outcome:     outcome,
		Minutes:     minutes,
		RecordedAt:  time.Now().UTC(),
	}
}

// Repository stores history.
type Repository interface {
	// SaveSnapshot inserts or replaces the snapshot of its day.
	SaveSnapshot(ctx context.Context, s ScoreSnapshot) error
	// ListSnapshots returns the latest snapshots, newest first.
	ListSnapshots(ctx context.Context, limit int) ([]ScoreSnapshot, error)
	SaveRecord(ctx context.Context, r ReconciliationRecord) error
	// ListRecords returns the latest records, newest first.
	ListRecords(ctx context.Context, limit int) ([]ReconciliationRecord, error)
}

// Pruner drops history older than a cutoff day.
type Pruner interface {
	// Prune removes snapshots and records before the day of before and
	// returns how many rows went.
	Prune(ctx context.Context, before time.Time) (int, error)
}

// NopRepository discards writes. Used when no history store is configured.
type NopRepository struct{}

func (NopRepository) SaveSnapshot(context.Context, ScoreSnapshot) error { return nil }
func (NopRepository) ListSnapshots(context.Context, int) ([]ScoreSnapshot, error) {
	return nil, nil
}
func (NopRepository) SaveRecord(context.Context, ReconciliationRecord) error { return nil }
func (NopRepository) ListRecords(context.Context, int) ([]ReconciliationRecord, error) {
	return nil, nil
}
func (NopRepository) Prune(context.Context, time.Time) (int, error) { return 0, nil }
