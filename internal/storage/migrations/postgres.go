package migrations

import (
	"context"
	"fmt"

	"travel-price-watch/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded PostgreSQL files in name order.
// Every file uses IF NOT EXISTS, so re-running is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, m := range files {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
	}
	return nil
}
