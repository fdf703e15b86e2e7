package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// TrackedItemStore implements storage.TrackedItemStore using PostgreSQL.
type TrackedItemStore struct {
	pool *Pool
}

// NewTrackedItemStore creates a new TrackedItemStore.
func NewTrackedItemStore(pool *Pool) *TrackedItemStore {
	return &TrackedItemStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TrackedItemStore = (*TrackedItemStore)(nil)

const trackedItemColumns = `id, user_id, item_type, item_name, origin_city, destination, travel_dates,
		target_price, current_price, last_checked_at, should_alert, alert_message`

// Insert adds a new tracked item. Returns ErrDuplicateKey if the id exists.
func (s *TrackedItemStore) Insert(ctx context.Context, item *domain.TrackedItem) error {
	if item == nil || item.ID == "" || item.OwnerUserID == "" || !item.ItemType.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tracked_items (` + trackedItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		item.ID,
		item.OwnerUserID,
		string(item.ItemType),
		item.ItemName,
		item.OriginCity,
		item.Destination,
		item.TravelDates,
		item.TargetPrice,
		item.CurrentPrice,
		nullableTime(item.LastCheckedAt),
		item.AlertStatus.ShouldAlert,
		item.AlertStatus.AlertMessage,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isConstraintError(err) {
			return fmt.Errorf("insert tracked item: %w", storage.ErrInvalidInput)
		}
		return fmt.Errorf("insert tracked item: %w", err)
	}
	return nil
}

// ListForUser retrieves all items owned by userID, in insertion order.
func (s *TrackedItemStore) ListForUser(ctx context.Context, userID string) ([]*domain.TrackedItem, error) {
	query := `
		SELECT ` + trackedItemColumns + `
		FROM tracked_items
		WHERE user_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tracked items for user: %w", err)
	}
	defer rows.Close()

	return scanTrackedItems(rows)
}

// Update overwrites the patched fields. Returns ErrNotFound if the item
// does not exist under userID.
func (s *TrackedItemStore) Update(ctx context.Context, userID, itemID string, patch domain.ItemPatch) error {
	query := `
		UPDATE tracked_items
		SET current_price = $3, last_checked_at = $4, should_alert = $5, alert_message = $6
		WHERE id = $1 AND user_id = $2
	`

	tag, err := s.pool.Exec(ctx, query,
		itemID,
		userID,
		patch.CurrentPrice,
		nullableTime(patch.LastCheckedAt),
		patch.AlertStatus.ShouldAlert,
		patch.AlertStatus.AlertMessage,
	)
	if err != nil {
		return fmt.Errorf("update tracked item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanTrackedItem scans a single row into a TrackedItem.
func scanTrackedItem(row pgx.Row) (*domain.TrackedItem, error) {
	var item domain.TrackedItem
	var itemType string
	var lastCheckedAt *time.Time

	err := row.Scan(
		&item.ID,
		&item.OwnerUserID,
		&itemType,
		&item.ItemName,
		&item.OriginCity,
		&item.Destination,
		&item.TravelDates,
		&item.TargetPrice,
		&item.CurrentPrice,
		&lastCheckedAt,
		&item.AlertStatus.ShouldAlert,
		&item.AlertStatus.AlertMessage,
	)
	if err != nil {
		return nil, err
	}

	item.ItemType = domain.ItemType(itemType)
	if lastCheckedAt != nil {
		item.LastCheckedAt = lastCheckedAt.UTC()
	}
	return &item, nil
}

// scanTrackedItems scans multiple rows into TrackedItems.
func scanTrackedItems(rows pgx.Rows) ([]*domain.TrackedItem, error) {
	result := make([]*domain.TrackedItem, 0)
	for rows.Next() {
		item, err := scanTrackedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracked item: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked items: %w", err)
	}
	return result, nil
}
