package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Go runs package tests from the package directory.
const migrationsDir = "../migrations/postgres"

// setupTestDB starts a disposable PostgreSQL and applies the schema.
// The returned cleanup stops the container.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("price_watch"),
		tcpostgres.WithUsername("watch"),
		tcpostgres.WithPassword("watch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "open pool")

	applySchema(t, ctx, pool)

	return pool, func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	}
}

// applySchema executes the migration files in name order. Glob results are
// sorted, which matches the numeric prefixes.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "no migrations under %s", migrationsDir)

	for _, file := range files {
		body, err := os.ReadFile(file)
		require.NoError(t, err, "read %s", file)

		_, err = pool.Exec(ctx, string(body))
		require.NoError(t, err, "apply %s", filepath.Base(file))
	}
}

func ptr[T any](v T) *T {
	return &v
}
