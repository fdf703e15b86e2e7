package postgres

import (
	"context"
	"fmt"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using PostgreSQL.
type PriceHistoryStore struct {
	pool *Pool
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(pool *Pool) *PriceHistoryStore {
	return &PriceHistoryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// Append records a new observation.
func (s *PriceHistoryStore) Append(ctx context.Context, obs *domain.PriceObservation) error {
	if obs == nil || obs.ItemID == "" || obs.ObservedAt.IsZero() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO price_observations (
			item_id, user_id, item_type, price, target_price, display_name, should_alert, observed_at, run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		obs.ItemID,
		obs.UserID,
		string(obs.ItemType),
		obs.Price,
		obs.TargetPrice,
		obs.DisplayName,
		obs.ShouldAlert,
		obs.ObservedAt.UTC(),
		obs.RunID,
	)
	if err != nil {
		return fmt.Errorf("insert price observation: %w", err)
	}
	return nil
}

// GetByItemID retrieves all observations for an item, ordered by observed_at ASC.
func (s *PriceHistoryStore) GetByItemID(ctx context.Context, itemID string) ([]*domain.PriceObservation, error) {
	query := `
		SELECT item_id, user_id, item_type, price, target_price, display_name, should_alert, observed_at, run_id
		FROM price_observations
		WHERE item_id = $1
		ORDER BY observed_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("get price observations by item: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.PriceObservation, 0)
	for rows.Next() {
		var obs domain.PriceObservation
		var itemType string
		err := rows.Scan(
			&obs.ItemID,
			&obs.UserID,
			&itemType,
			&obs.Price,
			&obs.TargetPrice,
			&obs.DisplayName,
			&obs.ShouldAlert,
			&obs.ObservedAt,
			&obs.RunID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price observation: %w", err)
		}
		obs.ItemType = domain.ItemType(itemType)
		obs.ObservedAt = obs.ObservedAt.UTC()
		result = append(result, &obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observations: %w", err)
	}
	return result, nil
}
