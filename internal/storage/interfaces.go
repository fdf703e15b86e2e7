package storage

import (
	"context"

	"travel-price-watch/internal/domain"
)

// UserDirectory provides read access to the users whose items are tracked.
type UserDirectory interface {
	// ListUsers returns every user, in a stable order.
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// UserStore is a UserDirectory that can also be seeded.
type UserStore interface {
	UserDirectory

	// Insert adds a new user. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, u *domain.User) error
}

// TrackedItemStore provides access to tracked_items storage.
type TrackedItemStore interface {
	// Insert adds a new tracked item. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, item *domain.TrackedItem) error

	// ListForUser retrieves all items owned by userID, in insertion order.
	// Returns an empty slice for users without items.
	ListForUser(ctx context.Context, userID string) ([]*domain.TrackedItem, error)

	// Update overwrites current price, last-checked timestamp and alert status.
	// Returns ErrNotFound if the item does not exist under userID.
	// Applying the same patch twice yields the same stored state.
	Update(ctx context.Context, userID, itemID string, patch domain.ItemPatch) error
}

// PriceHistoryStore provides access to price_observations storage.
type PriceHistoryStore interface {
	// Append records a new observation.
	Append(ctx context.Context, obs *domain.PriceObservation) error

	// GetByItemID retrieves all observations for an item, ordered by observed_at ASC.
	GetByItemID(ctx context.Context, itemID string) ([]*domain.PriceObservation, error)
}
