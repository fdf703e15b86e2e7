package migrations

import (
	"context"
	"fmt"

	"travel-price-watch/internal/storage/sqlite"
)

// RunSQLiteMigrations applies the embedded SQLite files in name order.
// Statements use IF NOT EXISTS, so re-running against an existing file is safe.
func RunSQLiteMigrations(ctx context.Context, db *sqlite.DB) error {
	files, err := load(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}
	for _, m := range files {
		for _, stmt := range splitStatements(m.SQL) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.Name, err)
			}
		}
	}
	return nil
}
