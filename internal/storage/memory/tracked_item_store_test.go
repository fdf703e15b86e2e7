package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

func newFlight(id, userID string) *domain.TrackedItem {
	return &domain.TrackedItem{
		ID:          id,
		OwnerUserID: userID,
		ItemType:    domain.ItemTypeFlight,
		ItemName:    "Flight " + id,
		OriginCity:  ptr("NYC"),
		Destination: ptr("Paris"),
		TravelDates: ptr("2099-07-01 to 2099-07-08"),
		TargetPrice: 400,
	}
}

func TestTrackedItemStore_InsertAndList(t *testing.T) {
	store := NewTrackedItemStore()
	ctx := context.Background()

	for _, item := range []*domain.TrackedItem{newFlight("i2", "u1"), newFlight("i1", "u1"), newFlight("i3", "u2")} {
		if err := store.Insert(ctx, item); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].ID != "i2" || got[1].ID != "i1" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}

	none, err := store.ListForUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestTrackedItemStore_DuplicateAndInvalid(t *testing.T) {
	store := NewTrackedItemStore()
	ctx := context.Background()

	if err := store.Insert(ctx, newFlight("i1", "u1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, newFlight("i1", "u1")); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	bad := newFlight("i2", "u1")
	bad.ItemType = "Train"
	if err := store.Insert(ctx, bad); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestTrackedItemStore_Update(t *testing.T) {
	store := NewTrackedItemStore()
	ctx := context.Background()
	_ = store.Insert(ctx, newFlight("i1", "u1"))

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	patch := domain.ItemPatch{
		CurrentPrice:  350,
		LastCheckedAt: now,
		AlertStatus:   domain.AlertStatus{ShouldAlert: true, AlertMessage: "dropped"},
	}

	// Idempotent: applying twice yields the same state
	for i := 0; i < 2; i++ {
		if err := store.Update(ctx, "u1", "i1", patch); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	items, err := store.ListForUser(ctx, "u1")
	if err != nil || len(items) != 1 {
		t.Fatalf("ListForUser failed: %v %v", items, err)
	}
	got := items[0]
	if got.CurrentPrice != 350 || !got.LastCheckedAt.Equal(now) || !got.AlertStatus.ShouldAlert {
		t.Errorf("unexpected item after update: %+v", got)
	}
	if got.TargetPrice != 400 || got.ItemName != "Flight i1" {
		t.Errorf("update touched unpatched fields: %+v", got)
	}
}

func TestTrackedItemStore_UpdateNotFound(t *testing.T) {
	store := NewTrackedItemStore()
	ctx := context.Background()
	_ = store.Insert(ctx, newFlight("i1", "u1"))

	if err := store.Update(ctx, "u1", "missing", domain.ItemPatch{}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	// Wrong owner
	if err := store.Update(ctx, "u2", "i1", domain.ItemPatch{}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for wrong owner, got %v", err)
	}
}

func TestTrackedItemStore_ReturnsCopies(t *testing.T) {
	store := NewTrackedItemStore()
	ctx := context.Background()
	_ = store.Insert(ctx, newFlight("i1", "u1"))

	items, _ := store.ListForUser(ctx, "u1")
	items[0].CurrentPrice = 1
	*items[0].Destination = "Mars"

	again, _ := store.ListForUser(ctx, "u1")
	got := again[0]
	if got.CurrentPrice != 0 || got.DestinationName() != "Paris" {
		t.Errorf("store was mutated through returned value: %+v", got)
	}
}

func TestTrackedItemStore_ConcurrentUpdates(t *testing.T) {
	store := NewTrackedItemStore()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_ = store.Insert(ctx, newFlight(fmt.Sprintf("i%d", i), "u1"))
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Update(ctx, "u1", fmt.Sprintf("i%d", i), domain.ItemPatch{CurrentPrice: float64(i)})
		}(i)
	}
	wg.Wait()

	items, _ := store.ListForUser(ctx, "u1")
	for i, item := range items {
		if item.CurrentPrice != float64(i) {
			t.Errorf("item %s price = %v, want %d", item.ID, item.CurrentPrice, i)
		}
	}
}
