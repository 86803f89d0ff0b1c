// Package migrations creates the history schema for both database drivers.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

// Files returns the ordered .up.sql files for the driver.
func Files(driver database.Driver) ([]string, error) {
	dir := driver.String()
	entries, err := migrationFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", driver, err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run executes every migration in order inside one transaction. Statements
// use IF NOT EXISTS, so running them again is harmless.
func Run(ctx context.Context, conn database.Connection) error {
	files, err := Files(conn.Driver())
	if err != nil {
		return err
	}

	return database.InTx(ctx, conn, func(ctx context.Context) error {
		exec := database.On(ctx, conn)
		for _, file := range files {
			migration, err := migrationFS.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read migration %s: %w", file, err)
			}
			if _, err := exec.Exec(ctx, string(migration)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", file, err)
			}
		}
		return nil
	})
}
