package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
// Observations are append-only, so the MergeTree needs no uniqueness checks.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// Append records a new observation.
func (s *PriceHistoryStore) Append(ctx context.Context, obs *domain.PriceObservation) error {
	if obs == nil {
		return storage.ErrInvalidInput
	}
	return s.AppendBulk(ctx, []*domain.PriceObservation{obs})
}

// AppendBulk records multiple observations in a single batch.
func (s *PriceHistoryStore) AppendBulk(ctx context.Context, observations []*domain.PriceObservation) error {
	if len(observations) == 0 {
		return nil
	}
	for _, obs := range observations {
		if obs == nil || obs.ItemID == "" || obs.ObservedAt.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_observations (
			item_id, user_id, item_type, price, target_price, display_name, should_alert, observed_at, run_id
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, obs := range observations {
		err = batch.Append(
			obs.ItemID, obs.UserID, string(obs.ItemType),
			obs.Price, obs.TargetPrice, obs.DisplayName,
			boolToUInt8(obs.ShouldAlert), obs.ObservedAt.UTC(), obs.RunID,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByItemID retrieves all observations for an item, ordered by observed_at ASC.
func (s *PriceHistoryStore) GetByItemID(ctx context.Context, itemID string) ([]*domain.PriceObservation, error) {
	query := `
		SELECT item_id, user_id, item_type, price, target_price, display_name, should_alert, observed_at, run_id
		FROM price_observations
		WHERE item_id = ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("query by item id: %w", err)
	}
	defer rows.Close()

	return scanPriceObservations(rows)
}

// scanPriceObservations scans rows into PriceObservations.
func scanPriceObservations(rows driver.Rows) ([]*domain.PriceObservation, error) {
	result := make([]*domain.PriceObservation, 0)
	for rows.Next() {
		var obs domain.PriceObservation
		var itemType string
		var shouldAlert uint8
		var observedAt time.Time

		err := rows.Scan(
			&obs.ItemID, &obs.UserID, &itemType,
			&obs.Price, &obs.TargetPrice, &obs.DisplayName,
			&shouldAlert, &observedAt, &obs.RunID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price observation: %w", err)
		}

		obs.ItemType = domain.ItemType(itemType)
		obs.ShouldAlert = shouldAlert != 0
		obs.ObservedAt = observedAt.UTC()
		result = append(result, &obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observations: %w", err)
	}
	return result, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
