// Package updater persists a successful price resolution onto its tracked item.
package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/logging"
	"travel-price-watch/internal/observability"
	"travel-price-watch/internal/storage"
)

// Change is the outcome of one successful resolution and evaluation.
type Change struct {
	Price     float64
	Status    domain.AlertStatus
	CheckedAt time.Time

	// DisplayName and RunID are only recorded in price history.
	DisplayName string
	RunID       string
}

// Options configures an Updater.
type Options struct {
	Items   storage.TrackedItemStore
	History storage.PriceHistoryStore // optional
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Updater writes price, check time and alert status through the item store.
type Updater struct {
	items   storage.TrackedItemStore
	history storage.PriceHistoryStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// New creates an Updater.
func New(opts Options) (*Updater, error) {
	if opts.Items == nil {
		return nil, errors.New("updater: tracked item store is required")
	}
	u := &Updater{
		items:   opts.Items,
		history: opts.History,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	u.logger = logging.OrNop(u.logger)
	return u, nil
}

// Apply overwrites the item's current price, last-checked time and alert
// status. The in-memory item is patched only after the store accepted the
// write. Repeating the same change yields the same stored state.
func (u *Updater) Apply(ctx context.Context, item *domain.TrackedItem, change Change) error {
	patch := domain.ItemPatch{
		CurrentPrice:  change.Price,
		LastCheckedAt: change.CheckedAt,
		AlertStatus:   change.Status,
	}

	if err := u.items.Update(ctx, item.OwnerUserID, item.ID, patch); err != nil {
		return fmt.Errorf("update tracked item %s: %w", item.ID, err)
	}
	patch.ApplyTo(item)

	if u.history != nil {
		u.record(ctx, item, change)
	}
	return nil
}

// record appends the observation to history. Failures are logged only.
func (u *Updater) record(ctx context.Context, item *domain.TrackedItem, change Change) {
	obs := &domain.PriceObservation{
		ItemID:      item.ID,
		UserID:      item.OwnerUserID,
		ItemType:    item.ItemType,
		Price:       change.Price,
		TargetPrice: item.TargetPrice,
		DisplayName: change.DisplayName,
		ShouldAlert: change.Status.ShouldAlert,
		ObservedAt:  change.CheckedAt,
		RunID:       change.RunID,
	}

	if err := u.history.Append(ctx, obs); err != nil {
		u.metrics.RecordError(observability.ErrorKindHistory)
		u.logger.Warn("failed to record price observation",
			zap.String("op", "updater.record"),
			zap.String("item_id", item.ID),
			zap.String("run_id", change.RunID),
			zap.Error(err),
		)
	}
}
