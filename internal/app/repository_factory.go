package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/infrastructure/persistence"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/taskpulse/pkg/config"
)

// HistoryConfig derives the database configuration for the history store.
func HistoryConfig(cfg *config.Config) database.Config {
	driver := database.Driver(cfg.DatabaseDriver)
	if !driver.IsValid() {
		driver = database.DetectDriver(cfg.DatabaseURL)
	}
	return database.Config{
		Driver:     driver,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	}
}

// OpenHistory connects to the history database, applies migrations and
// returns the matching repository. Without a configured store it returns a
// nil connection and a repository that records nothing. On error the
// returned repository is also the no-op one.
func OpenHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, history.Repository, error) {
	if !cfg.HistoryEnabled() {
		return nil, history.NopRepository{}, nil
	}

	dbCfg := HistoryConfig(cfg)
	if dbCfg.Driver == database.DriverSQLite {
		if err := database.EnsureDirectory(dbCfg.SQLitePath); err != nil {
			return nil, history.NopRepository{}, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, history.NopRepository{}, fmt.Errorf("failed to open history database: %w", err)
	}

	logger.Info("running history migrations", "driver", conn.Driver())
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, history.NopRepository{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, persistence.NewHistoryRepository(conn), nil
}
