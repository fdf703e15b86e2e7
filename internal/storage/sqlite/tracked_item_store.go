package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// TrackedItemStore implements storage.TrackedItemStore using SQLite.
type TrackedItemStore struct {
	db *DB
}

// NewTrackedItemStore creates a new TrackedItemStore.
func NewTrackedItemStore(db *DB) *TrackedItemStore {
	return &TrackedItemStore{db: db}
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracked_items (`+trackedItemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.OwnerUserID,
		string(item.ItemType),
		item.ItemName,
		item.OriginCity,
		item.Destination,
		item.TravelDates,
		item.TargetPrice,
		item.CurrentPrice,
		toMillis(item.LastCheckedAt),
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trackedItemColumns+` FROM tracked_items WHERE user_id = ? ORDER BY seq ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tracked items for user: %w", err)
	}
	defer rows.Close()

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

// Update overwrites the patched fields. Returns ErrNotFound if the item
// does not exist under userID.
func (s *TrackedItemStore) Update(ctx context.Context, userID, itemID string, patch domain.ItemPatch) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tracked_items
		SET current_price = ?, last_checked_at = ?, should_alert = ?, alert_message = ?
		WHERE id = ? AND user_id = ?`,
		patch.CurrentPrice,
		toMillis(patch.LastCheckedAt),
		patch.AlertStatus.ShouldAlert,
		patch.AlertStatus.AlertMessage,
		itemID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("update tracked item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tracked item rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrackedItem(row rowScanner) (*domain.TrackedItem, error) {
	var item domain.TrackedItem
	var itemType string
	var origin, destination, dates sql.NullString
	var lastChecked sql.NullInt64

	err := row.Scan(
		&item.ID,
		&item.OwnerUserID,
		&itemType,
		&item.ItemName,
		&origin,
		&destination,
		&dates,
		&item.TargetPrice,
		&item.CurrentPrice,
		&lastChecked,
		&item.AlertStatus.ShouldAlert,
		&item.AlertStatus.AlertMessage,
	)
	if err != nil {
		return nil, err
	}

	item.ItemType = domain.ItemType(itemType)
	item.OriginCity = nullString(origin)
	item.Destination = nullString(destination)
	item.TravelDates = nullString(dates)
	item.LastCheckedAt = fromMillis(lastChecked)
	return &item, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
