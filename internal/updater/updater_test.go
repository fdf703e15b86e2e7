package updater

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
	"travel-price-watch/internal/storage/memory"
)

type failingHistory struct{}

func (failingHistory) Append(context.Context, *domain.PriceObservation) error {
	return errors.New("history down")
}

func (failingHistory) GetByItemID(context.Context, string) ([]*domain.PriceObservation, error) {
	return nil, nil
}

func seed(t *testing.T) (*memory.TrackedItemStore, *domain.TrackedItem) {
	t.Helper()
	store := memory.NewTrackedItemStore()
	item := &domain.TrackedItem{
		ID:           "i1",
		OwnerUserID:  "u1",
		ItemType:     domain.ItemTypeFlight,
		ItemName:     "Paris",
		TargetPrice:  350,
		CurrentPrice: 500,
	}
	require.NoError(t, store.Insert(context.Background(), item))
	return store, item.Clone()
}

// stored returns the persisted copy of item i1.
func stored(t *testing.T, store *memory.TrackedItemStore) *domain.TrackedItem {
	t.Helper()
	items, err := store.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0]
}

func TestApply_WritesPatchAndHistory(t *testing.T) {
	store, item := seed(t)
	history := memory.NewPriceHistoryStore()
	u, err := New(Options{Items: store, History: history})
	require.NoError(t, err)

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	change := Change{
		Price:       300,
		Status:      domain.AlertStatus{ShouldAlert: true, AlertMessage: "dropped"},
		CheckedAt:   now,
		DisplayName: "Delta to Paris",
		RunID:       "run-1",
	}
	require.NoError(t, u.Apply(context.Background(), item, change))

	// In-memory item reflects the write
	assert.Equal(t, 300.0, item.CurrentPrice)
	assert.True(t, item.AlertStatus.ShouldAlert)

	got := stored(t, store)
	assert.Equal(t, 300.0, got.CurrentPrice)
	assert.True(t, got.LastCheckedAt.Equal(now))
	assert.Equal(t, change.Status, got.AlertStatus)

	obs, err := history.GetByItemID(context.Background(), "i1")
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "Delta to Paris", obs[0].DisplayName)
	assert.Equal(t, "run-1", obs[0].RunID)
	assert.Equal(t, 350.0, obs[0].TargetPrice)
}

func TestApply_Idempotent(t *testing.T) {
	store, item := seed(t)
	u, err := New(Options{Items: store})
	require.NoError(t, err)

	change := Change{Price: 320, CheckedAt: time.Unix(1700000000, 0).UTC()}
	require.NoError(t, u.Apply(context.Background(), item, change))
	first := stored(t, store)

	require.NoError(t, u.Apply(context.Background(), item, change))
	second := stored(t, store)

	assert.Equal(t, first, second)
}

func TestApply_StoreFailureLeavesItemUntouched(t *testing.T) {
	store := memory.NewTrackedItemStore()
	u, err := New(Options{Items: store})
	require.NoError(t, err)

	// Never inserted: the store reports ErrNotFound.
	item := &domain.TrackedItem{ID: "ghost", OwnerUserID: "u1", CurrentPrice: 500}
	err = u.Apply(context.Background(), item, Change{Price: 1, CheckedAt: time.Now()})

	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 500.0, item.CurrentPrice)
	assert.True(t, item.LastCheckedAt.IsZero())
}

func TestApply_HistoryFailureIsNotFatal(t *testing.T) {
	store, item := seed(t)
	u, err := New(Options{Items: store, History: failingHistory{}})
	require.NoError(t, err)

	err = u.Apply(context.Background(), item, Change{Price: 200, CheckedAt: time.Now()})
	assert.NoError(t, err)
	assert.Equal(t, 200.0, item.CurrentPrice)
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
