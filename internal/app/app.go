// Package app wires configuration into a runnable price-tracking engine.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"travel-price-watch/internal/config"
	"travel-price-watch/internal/coordinator"
	"travel-price-watch/internal/fixtures"
	"travel-price-watch/internal/logging"
	"travel-price-watch/internal/notify"
	"travel-price-watch/internal/observability"
	"travel-price-watch/internal/pricing"
	"travel-price-watch/internal/resolver"
	"travel-price-watch/internal/updater"
)

// App is a fully wired engine.
type App struct {
	Stores      *Stores
	Metrics     *observability.Metrics
	Registry    *prometheus.Registry
	Coordinator *coordinator.Coordinator

	logger  *zap.Logger
	closers []func()
}

// New builds stores, provider clients, notification channels and the run
// coordinator from cfg. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Configuration, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: configuration is required")
	}
	logger = logging.OrNop(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &App{
		Registry: reg,
		Metrics:  observability.NewMetrics("", reg),
		logger:   logger,
	}

	stores, closeStores, err := createStores(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	a.Stores = stores
	a.closers = append(a.closers, closeStores)

	var set *fixtures.Set
	if cfg.Fixtures.Path != "" {
		set, err = fixtures.Load(cfg.Fixtures.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := set.Seed(ctx, stores.Users, stores.Items); err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("fixtures loaded",
			zap.String("op", "app.New"),
			zap.String("path", cfg.Fixtures.Path),
			zap.Int("users", len(set.Users)),
			zap.Int("items", len(set.Items)),
		)
	}

	flights, hotels := pricingServices(cfg.Pricing, set)

	service, err := a.notificationService(cfg.Notifications)
	if err != nil {
		a.Close()
		return nil, err
	}

	res := resolver.New(resolver.Options{
		Flights:           flights,
		Hotels:            hotels,
		FlightConcurrency: cfg.Pricing.FlightConcurrency,
		HotelConcurrency:  cfg.Pricing.HotelConcurrency,
		Metrics:           a.Metrics,
		Logger:            logger,
	})

	upd, err := updater.New(updater.Options{
		Items:   stores.Items,
		History: stores.History,
		Metrics: a.Metrics,
		Logger:  logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	disp, err := notify.NewDispatcher(notify.Options{
		Service: service,
		Metrics: a.Metrics,
		Logger:  logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Coordinator, err = coordinator.New(coordinator.Options{
		Users:       stores.Users,
		Items:       stores.Items,
		Resolver:    res,
		Updater:     upd,
		Dispatcher:  disp,
		Concurrency: cfg.Engine.Concurrency,
		Metrics:     a.Metrics,
		Logger:      logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// pricingServices prefers the configured HTTP gateway per provider and
// falls back to fixture quotes.
func pricingServices(cfg config.PricingConfig, set *fixtures.Set) (pricing.FlightPricingService, pricing.HotelPricingService) {
	var (
		flights pricing.FlightPricingService
		hotels  pricing.HotelPricingService
	)

	if cfg.FlightEndpoint != "" || cfg.HotelEndpoint != "" {
		client := pricing.NewHTTPClient(cfg.FlightEndpoint, cfg.HotelEndpoint,
			pricing.WithAPIKey(cfg.APIKey),
			pricing.WithTimeout(cfg.Timeout),
			pricing.WithMaxRetries(cfg.MaxRetries),
			pricing.WithRetryDelay(cfg.RetryDelay),
		)
		if cfg.FlightEndpoint != "" {
			flights = client
		}
		if cfg.HotelEndpoint != "" {
			hotels = client
		}
	}

	if set != nil {
		if flights == nil {
			flights = set.FlightService()
		}
		if hotels == nil {
			hotels = set.HotelService()
		}
	}
	return flights, hotels
}

// notificationService builds the delivery channels. Dry runs log instead
// of sending. A push gateway URL routes push over WebSocket while email
// stays on the REST service.
func (a *App) notificationService(cfg config.NotificationsConfig) (notify.NotificationService, error) {
	if cfg.DryRun {
		return notify.NewLogNotifier(a.logger), nil
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("notifications.endpoint is required")
	}

	rest := notify.NewHTTPClient(cfg.Endpoint,
		notify.WithAPIKey(cfg.APIKey),
		notify.WithTimeout(cfg.Timeout),
	)
	if cfg.PushGatewayURL == "" {
		return rest, nil
	}

	wsCfg := notify.DefaultWSPushConfig()
	if cfg.Timeout > 0 {
		wsCfg.WriteTimeout = cfg.Timeout
		wsCfg.AckTimeout = cfg.Timeout
	}
	push := notify.NewWSPushClient(cfg.PushGatewayURL, &wsCfg)
	a.closers = append(a.closers, func() { push.Close() })

	return notify.Channels{Push: push, Email: rest}, nil
}
