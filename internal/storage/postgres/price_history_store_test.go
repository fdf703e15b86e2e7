package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-price-watch/internal/domain"
)

func TestPriceHistoryStore_AppendAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceHistoryStore(pool)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := &domain.PriceObservation{
		ItemID: "i1", UserID: "u1", ItemType: domain.ItemTypeFlight,
		Price: 300, TargetPrice: 400, DisplayName: "Delta to Paris",
		ShouldAlert: true, ObservedAt: base.Add(time.Hour), RunID: "run-2",
	}
	earlier := &domain.PriceObservation{
		ItemID: "i1", UserID: "u1", ItemType: domain.ItemTypeFlight,
		Price: 450, TargetPrice: 400, DisplayName: "Delta to Paris",
		ObservedAt: base, RunID: "run-1",
	}
	require.NoError(t, store.Append(ctx, later))
	require.NoError(t, store.Append(ctx, earlier))

	got, err := store.GetByItemID(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, 450.0, got[0].Price)
	assert.Equal(t, "run-2", got[1].RunID)
	assert.True(t, got[1].ShouldAlert)
	assert.True(t, got[1].ObservedAt.Equal(later.ObservedAt))

	none, err := store.GetByItemID(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
