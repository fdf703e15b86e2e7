package memory

import (
	"context"
	"sync"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	order []string
	data  map[string]*domain.User // keyed by user id
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		data: make(map[string]*domain.User),
	}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Insert adds a new user. Returns ErrDuplicateKey if the id exists.
func (s *UserStore) Insert(_ context.Context, u *domain.User) error {
	if u == nil || u.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[u.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[u.ID] = u.Clone()
	s.order = append(s.order, u.ID)
	return nil
}

// ListUsers returns every user in insertion order.
func (s *UserStore) ListUsers(_ context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.User, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.data[id].Clone())
	}
	return result, nil
}
