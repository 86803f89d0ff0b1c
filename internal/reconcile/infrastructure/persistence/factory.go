package persistence

import (
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database"
)

// NewHistoryRepository picks the implementation for the connection's driver.
func NewHistoryRepository(conn database.Connection) history.Repository {
	if conn.Driver() == database.DriverPostgres {
		return NewPostgresHistoryRepository(conn)
	}
	return NewSQLiteHistoryRepository(conn)
}
