// Package persistence stores score snapshots and reconciliation records.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const (
	sqliteDayLayout  = "2006-01-02"
	sqliteTimeLayout = time.RFC3339Nano
)

// SQLiteHistoryRepository implements history.Repository on SQLite.
type SQLiteHistoryRepository struct {
	conn database.Connection
}

// NewSQLiteHistoryRepository creates a new SQLite history repository.
func NewSQLiteHistoryRepository(conn database.Connection) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{conn: conn}
}

func (r *SQLiteHistoryRepository) SaveSnapshot(ctx context.Context, s history.ScoreSnapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := database.On(ctx, r.conn).Exec(ctx, `
		INSERT INTO score_snapshots (day, score, overdue_count, today_count, added, completed, updated, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			score = excluded.score,
			overdue_count = excluded.overdue_count,
			today_count = excluded.today_count,
			added = excluded.added,
			completed = excluded.completed,
			updated = excluded.updated,
			recorded_at = excluded.recorded_at
	`, s.DayKey(), s.Score, s.OverdueCount, s.TodayCount, s.Added, s.Completed, s.Updated,
		s.RecordedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.DayKey(), err)
	}
	return nil
}

func (r *SQLiteHistoryRepository) ListSnapshots(ctx context.Context, limit int) ([]history.ScoreSnapshot, error) {
	rows, err := database.On(ctx, r.conn).Query(ctx, `
		SELECT day, score, overdue_count, today_count, added, completed, updated, recorded_at
		FROM score_snapshots
		ORDER BY day DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []history.ScoreSnapshot
	for rows.Next() {
		var s history.ScoreSnapshot
		var day, recordedAt string
		if err := rows.Scan(&day, &s.Score, &s.OverdueCount, &s.TodayCount, &s.Added, &s.Completed, &s.Updated, &recordedAt); err != nil {
			return nil, err
		}
		if s.Day, err = time.Parse(sqliteDayLayout, day); err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		if s.RecordedAt, err = time.Parse(sqliteTimeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (r *SQLiteHistoryRepository) SaveRecord(ctx context.Context, rec history.ReconciliationRecord) error {
	taskIDs, err := json.Marshal(nonNil(rec.TaskIDs))
	if err != nil {
		return err
	}
	_, err = database.On(ctx, r.conn).Exec(ctx, `
		INSERT INTO reconciliation_records (id, kind, description, task_ids, outcome, minutes, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID.String(), string(rec.Kind), rec.Description, string(taskIDs), rec.Outcome, rec.Minutes,
		rec.RecordedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (r *SQLiteHistoryRepository) ListRecords(ctx context.Context, limit int) ([]history.ReconciliationRecord, error) {
	rows, err := database.On(ctx, r.conn).Query(ctx, `
		SELECT id, kind, description, task_ids, outcome, minutes, recorded_at
		FROM reconciliation_records
		ORDER BY recorded_at DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []history.ReconciliationRecord
	for rows.Next() {
		var rec history.ReconciliationRecord
		var id, kind, taskIDs, recordedAt string
		if err := rows.Scan(&id, &kind, &rec.Description, &taskIDs, &rec.Outcome, &rec.Minutes, &recordedAt); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		rec.Kind = history.RecordKind(kind)
		if err := json.Unmarshal([]byte(taskIDs), &rec.TaskIDs); err != nil {
			return nil, fmt.Errorf("decode task ids: %w", err)
		}
		if rec.RecordedAt, err = time.Parse(sqliteTimeLayout, recordedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes by day prefix; recorded_at is stored as RFC 3339 text.
func (r *SQLiteHistoryRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	cutoff := before.UTC().Format(sqliteDayLayout)
	var removed int64
	err := database.InTx(ctx, r.conn, func(ctx context.Context) error {
		exec := database.On(ctx, r.conn)
		n, err := exec.Exec(ctx, `DELETE FROM score_snapshots WHERE day < ?`, cutoff)
		if err != nil {
			return err
		}
		m, err := exec.Exec(ctx, `DELETE FROM reconciliation_records WHERE substr(recorded_at, 1, 10) < ?`, cutoff)
		if err != nil {
			return err
		}
		removed = n + m
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune history before %s: %w", cutoff, err)
	}
	return int(removed), nil
}

const defaultListLimit = 30

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
