package memory

import (
	"context"
	"sync"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// TrackedItemStore is an in-memory implementation of storage.TrackedItemStore.
type TrackedItemStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.TrackedItem // keyed by item id
	byUser map[string][]string            // user id -> item ids in insertion order
}

// NewTrackedItemStore creates a new in-memory tracked item store.
func NewTrackedItemStore() *TrackedItemStore {
	return &TrackedItemStore{
		data:   make(map[string]*domain.TrackedItem),
		byUser: make(map[string][]string),
	}
}

// Compile-time interface check.
var _ storage.TrackedItemStore = (*TrackedItemStore)(nil)

// Insert adds a new tracked item. Returns ErrDuplicateKey if the id exists.
func (s *TrackedItemStore) Insert(_ context.Context, item *domain.TrackedItem) error {
	if item == nil || item.ID == "" || item.OwnerUserID == "" || !item.ItemType.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[item.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	s.data[item.ID] = item.Clone()
	s.byUser[item.OwnerUserID] = append(s.byUser[item.OwnerUserID], item.ID)
	return nil
}

// ListForUser retrieves all items owned by userID, in insertion order.
func (s *TrackedItemStore) ListForUser(_ context.Context, userID string) ([]*domain.TrackedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	result := make([]*domain.TrackedItem, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.data[id].Clone())
	}
	return result, nil
}

// Update overwrites the patched fields. Returns ErrNotFound if the item
// does not exist under userID.
func (s *TrackedItemStore) Update(_ context.Context, userID, itemID string, patch domain.ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.data[itemID]
	if !exists || item.OwnerUserID != userID {
		return storage.ErrNotFound
	}

	patch.ApplyTo(item)
	return nil
}
