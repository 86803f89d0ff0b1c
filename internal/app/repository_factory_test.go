package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/infrastructure/persistence"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/taskpulse/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestHistoryConfig(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		driver database.Driver
	}{
		{"explicit sqlite", config.Config{DatabaseDriver: "sqlite", SQLitePath: "/tmp/h.db"}, database.DriverSQLite},
		{"explicit postgres", config.Config{DatabaseDriver: "postgres", DatabaseURL: "host=db"}, database.DriverPostgres},
		{"detected from url", config.Config{DatabaseURL: "postgres://u@db/taskpulse"}, database.DriverPostgres},
		{"default", config.Config{SQLitePath: "/tmp/h.db"}, database.DriverSQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HistoryConfig(&tt.cfg)
			assert.Equal(t, tt.driver, got.Driver)
			assert.Equal(t, tt.cfg.SQLitePath, got.SQLitePath)
		})
	}
}

func TestOpenHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		conn, repo, err := OpenHistory(ctx, &config.Config{}, testLogger())
		require.NoError(t, err)
		assert.Nil(t, conn)
		assert.IsType(t, history.NopRepository{}, repo)
	})

	t.Run("sqlite creates directory and schema", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "history.db")
		cfg := &config.Config{DatabaseDriver: "sqlite", SQLitePath: path}

		conn, repo, err := OpenHistory(ctx, cfg, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })

		assert.Equal(t, database.DriverSQLite, conn.Driver())
		assert.IsType(t, &persistence.SQLiteHistoryRepository{}, repo)
		assert.FileExists(t, path)

		day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.SaveSnapshot(ctx, history.ScoreSnapshot{Day: day, Score: 94, TodayCount: 3, RecordedAt: day}))
		snaps, err := repo.ListSnapshots(ctx, 5)
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, 94, snaps[0].Score)
	})

	t.Run("unreachable postgres", func(t *testing.T) {
		cfg := &config.Config{DatabaseDriver: "postgres", DatabaseURL: "postgres://u:p@127.0.0.1:1/taskpulse?connect_timeout=1"}
		conn, repo, err := OpenHistory(ctx, cfg, testLogger())
		assert.Error(t, err)
		assert.Nil(t, conn)
		assert.IsType(t, history.NopRepository{}, repo)
	})
}
