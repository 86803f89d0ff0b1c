package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database"
	"github.com/lib/pq"
)

// PostgresHistoryRepository implements history.Repository on PostgreSQL.
type PostgresHistoryRepository struct {
	conn database.Connection
}

// NewPostgresHistoryRepository creates a new PostgreSQL history repository.
func NewPostgresHistoryRepository(conn database.Connection) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{conn: conn}
}

func (r *PostgresHistoryRepository) SaveSnapshot(ctx context.Context, s history.ScoreSnapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := database.On(ctx, r.conn).Exec(ctx, `
		INSERT INTO score_snapshots (day, score, overdue_count, today_count, added, completed, updated, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (day) DO UPDATE SET
			score = EXCLUDED.score,
			overdue_count = EXCLUDED.overdue_count,
			today_count = EXCLUDED.today_count,
			added = EXCLUDED.added,
			completed = EXCLUDED.completed,
			updated = EXCLUDED.updated,
			recorded_at = EXCLUDED.recorded_at
	`, s.DayKey(), s.Score, s.OverdueCount, s.TodayCount, s.Added, s.Completed, s.Updated, s.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.DayKey(), err)
	}
	return nil
}

func (r *PostgresHistoryRepository) ListSnapshots(ctx context.Context, limit int) ([]history.ScoreSnapshot, error) {
	rows, err := database.On(ctx, r.conn).Query(ctx, `
		SELECT day, score, overdue_count, today_count, added, completed, updated, recorded_at
		FROM score_snapshots
		ORDER BY day DESC
		LIMIT $1
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []history.ScoreSnapshot
	for rows.Next() {
		var s history.ScoreSnapshot
		if err := rows.Scan(&s.Day, &s.Score, &s.OverdueCount, &s.TodayCount, &s.Added, &s.Completed, &s.Updated, &s.RecordedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (r *PostgresHistoryRepository) SaveRecord(ctx context.Context, rec history.ReconciliationRecord) error {
	_, err := database.On(ctx, r.conn).Exec(ctx, `
		INSERT INTO reconciliation_records (id, kind, description, task_ids, outcome, minutes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, string(rec.Kind), rec.Description, pq.Array(nonNil(rec.TaskIDs)), rec.Outcome, rec.Minutes, rec.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (r *PostgresHistoryRepository) ListRecords(ctx context.Context, limit int) ([]history.ReconciliationRecord, error) {
	rows, err := database.On(ctx, r.conn).Query(ctx, `
		SELECT id, kind, description, task_ids, outcome, minutes, recorded_at
		FROM reconciliation_records
		ORDER BY recorded_at DESC
		LIMIT $1
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []history.ReconciliationRecord
	for rows.Next() {
		var rec history.ReconciliationRecord
		var kind string
		var taskIDs []string
		if err := rows.Scan(&rec.ID, &kind, &rec.Description, pq.Array(&taskIDs), &rec.Outcome, &rec.Minutes, &rec.RecordedAt); err != nil {
			return nil, err
		}
		rec.Kind = history.RecordKind(kind)
		rec.TaskIDs = taskIDs
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PostgresHistoryRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	cutoff := before.UTC().Format("2006-01-02")
	var removed int64
	err := database.InTx(ctx, r.conn, func(ctx context.Context) error {
		exec := database.On(ctx, r.conn)
		n, err := exec.Exec(ctx, `DELETE FROM score_snapshots WHERE day < $1::date`, cutoff)
		if err != nil {
			return err
		}
		m, err := exec.Exec(ctx, `DELETE FROM reconciliation_records WHERE recorded_at < $1::date`, cutoff)
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
