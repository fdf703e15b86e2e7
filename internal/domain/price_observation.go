package domain

import "time"

// PriceObservation is one successful price resolution recorded for history.
// Corresponds to price_observations table (PostgreSQL) / MergeTree (ClickHouse).
type PriceObservation struct {
	ItemID      string
	UserID      string
	ItemType    ItemType
	Price       float64
	TargetPrice float64
	DisplayName string
	ShouldAlert bool
	ObservedAt  time.Time
	RunID       string
}
