package postgres

import (
	"context"
	"fmt"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// UserStore implements storage.UserStore using PostgreSQL.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Insert adds a new user. Returns ErrDuplicateKey if the id exists.
func (s *UserStore) Insert(ctx context.Context, u *domain.User) error {
	if u == nil || u.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO users (id, email, has_push_capability)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, u.ID, u.Email, u.HasPushCapability)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ListUsers returns every user in insertion order.
func (s *UserStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, email, has_push_capability
		FROM users
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.HasPushCapability); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return result, nil
}
