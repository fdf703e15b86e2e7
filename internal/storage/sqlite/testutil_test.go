package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB opens an in-memory database with the schema applied.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	files, err := filepath.Glob("../migrations/sqlite/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, string(content))
		require.NoError(t, err, "apply %s", filepath.Base(f))
	}

	return db
}

func ptr[T any](v T) *T {
	return &v
}
