// Package resolver turns a tracked item into one canonical current price by
// querying the matching pricing provider.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/logging"
	"travel-price-watch/internal/observability"
	"travel-price-watch/internal/pricing"
)

// DateLayout is the date format sent to pricing providers.
const DateLayout = "2006-01-02"

// Provider names used for metrics and logs.
const (
	ProviderFlight = "flight"
	ProviderHotel  = "hotel"
)

// Resolution is the outcome of a successful price lookup.
type Resolution struct {
	Price       float64
	DisplayName string
}

// Options configures a Resolver.
type Options struct {
	Flights pricing.FlightPricingService
	Hotels  pricing.HotelPricingService

	// FlightConcurrency and HotelConcurrency bound in-flight calls per
	// provider. Zero means unbounded.
	FlightConcurrency int
	HotelConcurrency  int

	Now     func() time.Time
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Resolver prices tracked items.
type Resolver struct {
	flights   pricing.FlightPricingService
	hotels    pricing.HotelPricingService
	flightSem *semaphore.Weighted
	hotelSem  *semaphore.Weighted
	now       func() time.Time
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// New creates a Resolver with the given options.
func New(opts Options) *Resolver {
	r := &Resolver{
		flights: opts.Flights,
		hotels:  opts.Hotels,
		now:     opts.Now,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.logger = logging.OrNop(r.logger)
	if opts.FlightConcurrency > 0 {
		r.flightSem = semaphore.NewWeighted(int64(opts.FlightConcurrency))
	}
	if opts.HotelConcurrency > 0 {
		r.hotelSem = semaphore.NewWeighted(int64(opts.HotelConcurrency))
	}
	return r
}

// Resolve prices item. Every failure, including a provider panic, is
// returned as a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, item *domain.TrackedItem) (Resolution, error) {
	switch item.ItemType {
	case domain.ItemTypeFlight:
		return r.resolveFlight(ctx, item)
	case domain.ItemTypeHotel:
		return r.resolveHotel(ctx, item)
	default:
		return Resolution{}, &ResolutionError{
			ItemID: item.ID,
			Reason: ReasonUnsupportedType,
			Err:    fmt.Errorf("item type %q", item.ItemType),
		}
	}
}

func (r *Resolver) resolveFlight(ctx context.Context, item *domain.TrackedItem) (Resolution, error) {
	origin := strings.TrimSpace(item.Origin())
	destination := strings.TrimSpace(item.DestinationName())
	if origin == "" || destination == "" {
		return Resolution{}, &ResolutionError{
			ItemID: item.ID,
			Reason: ReasonMissingFields,
			Err:    errors.New("flight requires origin city and destination"),
		}
	}
	if r.flights == nil {
		return Resolution{}, &ResolutionError{ItemID: item.ID, Reason: ReasonProviderError, Err: errors.New("no flight pricing service")}
	}

	query := pricing.FlightQuery{
		Origin:        origin,
		Destination:   destination,
		DepartureDate: r.departureDate(item),
	}

	var result *pricing.FlightSearchResult
	err := r.call(ctx, ProviderFlight, r.flightSem, func(ctx context.Context) (err error) {
		result, err = r.flights.SearchFlights(ctx, query)
		return err
	})
	if err != nil {
		return Resolution{}, &ResolutionError{ItemID: item.ID, Reason: ReasonProviderError, Err: err}
	}

	candidates := result.Candidates()
	if len(candidates) == 0 {
		return Resolution{}, &ResolutionError{ItemID: item.ID, Reason: ReasonNoResults}
	}

	best := candidates[0]
	carrier := best.Airline
	if carrier == "" {
		carrier = item.ItemName
	}

	return Resolution{
		Price:       best.Price,
		DisplayName: carrier + " to " + destination,
	}, nil
}

func (r *Resolver) resolveHotel(ctx context.Context, item *domain.TrackedItem) (Resolution, error) {
	destination := strings.TrimSpace(item.DestinationName())
	if destination == "" {
		return Resolution{}, &ResolutionError{
			ItemID: item.ID,
			Reason: ReasonMissingFields,
			Err:    errors.New("hotel requires destination"),
		}
	}
	if r.hotels == nil {
		return Resolution{}, &ResolutionError{ItemID: item.ID, Reason: ReasonProviderError, Err: errors.New("no hotel pricing service")}
	}

	// Check-in and check-out both default to one month out; stay length
	// is not derived from the item.
	stay := r.defaultDate()
	query := pricing.HotelQuery{
		Destination:  destination,
		CheckInDate:  stay,
		CheckOutDate: stay,
	}

	var result *pricing.HotelSearchResult
	err := r.call(ctx, ProviderHotel, r.hotelSem, func(ctx context.Context) (err error) {
		result, err = r.hotels.SearchHotels(ctx, query)
		return err
	})
	if err != nil {
		return Resolution{}, &ResolutionError{ItemID: item.ID, Reason: ReasonProviderError, Err: err}
	}

	if result == nil || len(result.Hotels) == 0 {
		return Resolution{}, &ResolutionError{ItemID: item.ID, Reason: ReasonNoResults}
	}

	best := result.Hotels[0]
	name := best.Name
	if name == "" {
		name = item.ItemName
	}

	return Resolution{
		Price:       best.PricePerNight,
		DisplayName: name,
	}, nil
}

// call runs fn under the provider's concurrency bound, converting a panic
// into an error and recording latency.
func (r *Resolver) call(ctx context.Context, provider string, sem *semaphore.Weighted, fn func(context.Context) error) (err error) {
	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("acquire %s slot: %w", provider, err)
		}
		defer sem.Release(1)
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s provider panic: %v", provider, p)
			r.logger.Error("pricing provider panicked",
				zap.String("op", "resolver.call"),
				zap.String("provider", provider),
				zap.Any("panic", p),
			)
		}
		r.metrics.RecordProviderCall(provider, err, time.Since(start))
	}()

	return fn(ctx)
}

func (r *Resolver) departureDate(item *domain.TrackedItem) string {
	if dates := strings.TrimSpace(item.Dates()); dates != "" {
		return dates
	}
	return r.defaultDate()
}

func (r *Resolver) defaultDate() string {
	return r.now().AddDate(0, 1, 0).Format(DateLayout)
}
