package memory

import (
	"context"
	"sort"
	"sync"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PriceObservation // keyed by item id
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{
		data: make(map[string][]*domain.PriceObservation),
	}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// Append records a new observation.
func (s *PriceHistoryStore) Append(_ context.Context, obs *domain.PriceObservation) error {
	if obs == nil || obs.ItemID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obsCopy := *obs
	s.data[obs.ItemID] = append(s.data[obs.ItemID], &obsCopy)
	return nil
}

// GetByItemID retrieves all observations for an item, ordered by observed_at ASC.
func (s *PriceHistoryStore) GetByItemID(_ context.Context, itemID string) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PriceObservation, 0, len(s.data[itemID]))
	for _, obs := range s.data[itemID] {
		obsCopy := *obs
		result = append(result, &obsCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ObservedAt.Before(result[j].ObservedAt)
	})

	return result, nil
}
