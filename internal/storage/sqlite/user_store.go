package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// UserStore implements storage.UserStore using SQLite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Insert adds a new user. Returns ErrDuplicateKey if the id exists.
func (s *UserStore) Insert(ctx context.Context, u *domain.User) error {
	if u == nil || u.ID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, has_push_capability) VALUES (?, ?, ?)`,
		u.ID, u.Email, u.HasPushCapability,
	)
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
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, has_push_capability FROM users ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.User, 0)
	for rows.Next() {
		var u domain.User
		var email sql.NullString
		if err := rows.Scan(&u.ID, &email, &u.HasPushCapability); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if email.Valid {
			u.Email = &email.String
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return result, nil
}
