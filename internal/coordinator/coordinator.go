// Package coordinator runs one price-tracking pass over every user.
// Flow per user: load tracked items → eligibility filter → for each item:
// resolve → evaluate → update → notify.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"travel-price-watch/internal/alert"
	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/eligibility"
	"travel-price-watch/internal/logging"
	"travel-price-watch/internal/notify"
	"travel-price-watch/internal/observability"
	"travel-price-watch/internal/resolver"
	"travel-price-watch/internal/storage"
	"travel-price-watch/internal/updater"
)

// PriceResolver prices one tracked item.
type PriceResolver interface {
	Resolve(ctx context.Context, item *domain.TrackedItem) (resolver.Resolution, error)
}

// StateUpdater persists a resolution onto its item.
type StateUpdater interface {
	Apply(ctx context.Context, item *domain.TrackedItem, change updater.Change) error
}

// Notifier sends the alert for an item when it qualifies.
type Notifier interface {
	MaybeNotify(ctx context.Context, user *domain.User, item *domain.TrackedItem, displayName string, resolvedPrice float64) (bool, error)
}

// Compile-time interface checks.
var (
	_ PriceResolver = (*resolver.Resolver)(nil)
	_ StateUpdater  = (*updater.Updater)(nil)
	_ Notifier      = (*notify.Dispatcher)(nil)
)

// UserLoadError reports that a user's tracked items could not be loaded.
type UserLoadError struct {
	UserID string
	Err    error
}

func (e *UserLoadError) Error() string {
	return fmt.Sprintf("load tracked items for user %s: %v", e.UserID, e.Err)
}

func (e *UserLoadError) Unwrap() error {
	return e.Err
}

// Options for creating a Coordinator.
type Options struct {
	// Required collaborators
	Users      storage.UserDirectory
	Items      storage.TrackedItemStore
	Resolver   PriceResolver
	Updater    StateUpdater
	Dispatcher Notifier

	// Concurrency is the number of users processed in parallel.
	// Values below 2 process users strictly in sequence.
	Concurrency int

	Now     func() time.Time
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Coordinator executes engine runs. It holds no state between runs.
type Coordinator struct {
	users       storage.UserDirectory
	items       storage.TrackedItemStore
	resolver    PriceResolver
	updater     StateUpdater
	dispatcher  Notifier
	concurrency int
	now         func() time.Time
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// New creates a new Coordinator.
func New(opts Options) (*Coordinator, error) {
	switch {
	case opts.Users == nil:
		return nil, errors.New("coordinator: user directory is required")
	case opts.Items == nil:
		return nil, errors.New("coordinator: tracked item store is required")
	case opts.Resolver == nil:
		return nil, errors.New("coordinator: resolver is required")
	case opts.Updater == nil:
		return nil, errors.New("coordinator: updater is required")
	case opts.Dispatcher == nil:
		return nil, errors.New("coordinator: dispatcher is required")
	}

	c := &Coordinator{
		users:       opts.Users,
		items:       opts.Items,
		resolver:    opts.Resolver,
		updater:     opts.Updater,
		dispatcher:  opts.Dispatcher,
		concurrency: opts.Concurrency,
		now:         opts.Now,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.logger = logging.OrNop(c.logger)
	return c, nil
}

// run carries per-run values through the user and item steps.
type run struct {
	id     string
	now    time.Time
	logger *zap.Logger
}

// Run executes one full pass and returns its summary.
// The only error returned is a failure to list users; per-user and
// per-item failures are counted in RunSummary.Errors.
func (c *Coordinator) Run(ctx context.Context) (domain.RunSummary, error) {
	started := time.Now()
	r := run{id: NewRunID(), now: c.now()}
	r.logger = c.logger.With(zap.String("run_id", r.id))

	r.logger.Info("run started", zap.String("op", "coordinator.Run"))

	users, err := c.listUsers(ctx)
	if err != nil {
		c.metrics.RecordRun(observability.RunStatusFailed, time.Since(started), time.Now())
		r.logger.Error("list users failed",
			zap.String("op", "coordinator.Run"),
			zap.Error(err),
		)
		return domain.RunSummary{}, fmt.Errorf("list users: %w", err)
	}

	outcomes := make([]domain.RunSummary, len(users))
	if c.concurrency > 1 && len(users) > 1 {
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i, user := range users {
			g.Go(func() error {
				outcomes[i] = c.processUser(ctx, r, user)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, user := range users {
			outcomes[i] = c.processUser(ctx, r, user)
		}
	}

	var summary domain.RunSummary
	for _, o := range outcomes {
		summary = summary.Add(o)
	}

	c.metrics.RecordSummary(summary)
	c.metrics.RecordRun(observability.RunStatusCompleted, time.Since(started), time.Now())

	r.logger.Info("run completed",
		zap.String("op", "coordinator.Run"),
		zap.Int("users", len(users)),
		zap.Int("processed_users", summary.ProcessedUsers),
		zap.Int("processed_items", summary.ProcessedItems),
		zap.Int("notifications_sent", summary.NotificationsSent),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", time.Since(started)),
	)

	return summary, nil
}

// listUsers reports a panicking directory as an error.
func (c *Coordinator) listUsers(ctx context.Context) (users []*domain.User, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.metrics.RecordError(observability.ErrorKindPanic)
			users, err = nil, fmt.Errorf("user directory panicked: %v", rec)
		}
	}()
	return c.users.ListUsers(ctx)
}

// processUser handles one user's batch. A failure to load items is fatal
// for this user only: the user is not counted and one error is recorded.
func (c *Coordinator) processUser(ctx context.Context, r run, user *domain.User) (out domain.RunSummary) {
	logger := r.logger

	defer func() {
		if rec := recover(); rec != nil {
			c.metrics.RecordError(observability.ErrorKindPanic)
			logger.Error("user processing panicked",
				zap.String("op", "coordinator.processUser"),
				zap.Any("panic", rec),
			)
			out = domain.RunSummary{Errors: out.Errors + 1}
		}
	}()

	logger = logger.With(zap.String("user_id", user.ID))

	items, err := c.items.ListForUser(ctx, user.ID)
	if err != nil {
		loadErr := &UserLoadError{UserID: user.ID, Err: err}
		c.metrics.RecordError(observability.ErrorKindUserLoad)
		logger.Warn("skipping user",
			zap.String("op", "coordinator.processUser"),
			zap.Error(loadErr),
		)
		return domain.RunSummary{Errors: 1}
	}

	eligible := eligibility.Filter(items, r.now, (*domain.TrackedItem).Dates)
	logger.Debug("tracked items loaded",
		zap.String("op", "coordinator.processUser"),
		zap.Int("items", len(items)),
		zap.Int("eligible", len(eligible)),
	)

	for _, item := range eligible {
		out = out.Add(c.processItem(ctx, r, user, item))
	}

	out.ProcessedUsers++
	return out
}

// processItem handles one eligible item inside its own failure boundary.
// The item is counted as processed whether or not it resolves.
func (c *Coordinator) processItem(ctx context.Context, r run, user *domain.User, item *domain.TrackedItem) (out domain.RunSummary) {
	out.ProcessedItems = 1
	logger := r.logger.With(zap.String("user_id", user.ID))

	defer func() {
		if rec := recover(); rec != nil {
			c.metrics.RecordError(observability.ErrorKindPanic)
			logger.Error("item processing panicked",
				zap.String("op", "coordinator.processItem"),
				zap.Any("panic", rec),
			)
			out.Errors++
		}
	}()

	logger = logger.With(zap.String("item_id", item.ID))

	res, err := c.resolver.Resolve(ctx, item)
	if err != nil {
		c.metrics.RecordError(observability.ErrorKindResolution)
		reason, _ := resolver.ReasonOf(err)
		logger.Warn("price resolution failed",
			zap.String("op", "coordinator.processItem"),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		out.Errors++
		return out
	}

	status := alert.Evaluate(res.Price, item.TargetPrice, res.DisplayName)
	change := updater.Change{
		Price:       res.Price,
		Status:      status,
		CheckedAt:   c.now(),
		DisplayName: res.DisplayName,
		RunID:       r.id,
	}
	if err := c.updater.Apply(ctx, item, change); err != nil {
		c.metrics.RecordError(observability.ErrorKindUpdate)
		logger.Warn("state update failed",
			zap.String("op", "coordinator.processItem"),
			zap.Error(err),
		)
		out.Errors++
		return out
	}

	sent, err := c.dispatcher.MaybeNotify(ctx, user, item, res.DisplayName, res.Price)
	if sent {
		out.NotificationsSent++
	}
	if err != nil {
		c.metrics.RecordError(observability.ErrorKindDispatch)
		out.Errors++
	}

	logger.Debug("item processed",
		zap.String("op", "coordinator.processItem"),
		zap.Float64("price", res.Price),
		zap.Bool("should_alert", status.ShouldAlert),
		zap.Bool("notified", sent),
	)
	return out
}

// NewRunID returns a short unique identifier for one run.
func NewRunID() string {
	id := uuid.New()
	return base58.Encode(id[:])
}
