package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using SQLite.
type PriceHistoryStore struct {
	db *DB
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(db *DB) *PriceHistoryStore {
	return &PriceHistoryStore{db: db}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// Append records a new observation.
func (s *PriceHistoryStore) Append(ctx context.Context, obs *domain.PriceObservation) error {
	if obs == nil || obs.ItemID == "" || obs.ObservedAt.IsZero() {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_observations (
			item_id, user_id, item_type, price, target_price, display_name, should_alert, observed_at, run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ItemID, obs.UserID, string(obs.ItemType), obs.Price, obs.TargetPrice,
		obs.DisplayName, obs.ShouldAlert, obs.ObservedAt.UnixMilli(), obs.RunID,
	)
	if err != nil {
		return fmt.Errorf("insert price observation: %w", err)
	}
	return nil
}

// GetByItemID retrieves all observations for an item, ordered by observed_at ASC.
func (s *PriceHistoryStore) GetByItemID(ctx context.Context, itemID string) ([]*domain.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, user_id, item_type, price, target_price, display_name, should_alert, observed_at, run_id
		FROM price_observations
		WHERE item_id = ?
		ORDER BY observed_at ASC, id ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("get price observations by item: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.PriceObservation, 0)
	for rows.Next() {
		var obs domain.PriceObservation
		var itemType string
		var observedAt sql.NullInt64
		err := rows.Scan(&obs.ItemID, &obs.UserID, &itemType, &obs.Price, &obs.TargetPrice,
			&obs.DisplayName, &obs.ShouldAlert, &observedAt, &obs.RunID)
		if err != nil {
			return nil, fmt.Errorf("scan price observation: %w", err)
		}
		obs.ItemType = domain.ItemType(itemType)
		obs.ObservedAt = fromMillis(observedAt)
		result = append(result, &obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observations: %w", err)
	}
	return result, nil
}
