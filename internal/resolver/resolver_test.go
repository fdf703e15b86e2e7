package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/observability"
	"travel-price-watch/internal/pricing"
	"travel-price-watch/internal/pricing/stub"
)

var fixedNow = time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func flightItem() *domain.TrackedItem {
	return &domain.TrackedItem{
		ID:          "f1",
		OwnerUserID: "u1",
		ItemType:    domain.ItemTypeFlight,
		ItemName:    "Summer in Paris",
		OriginCity:  ptr("NYC"),
		Destination: ptr("Paris"),
		TargetPrice: 350,
	}
}

func hotelItem() *domain.TrackedItem {
	return &domain.TrackedItem{
		ID:          "h1",
		OwnerUserID: "u1",
		ItemType:    domain.ItemTypeHotel,
		ItemName:    "Rome stay",
		Destination: ptr("Rome"),
		TargetPrice: 100,
	}
}

func newResolver(flights *stub.FlightService, hotels *stub.HotelService) *Resolver {
	return New(Options{
		Flights: flights,
		Hotels:  hotels,
		Now:     func() time.Time { return fixedNow },
	})
}

func TestResolve_FlightFirstCandidate(t *testing.T) {
	flights := stub.NewFlightService()
	flights.SetRoute("NYC", "Paris", &pricing.FlightSearchResult{
		BestResults:  []pricing.FlightResult{{Price: 300, Airline: "Delta"}, {Price: 250, Airline: "Cheap"}},
		OtherResults: []pricing.FlightResult{{Price: 100}},
	})
	r := newResolver(flights, stub.NewHotelService())

	item := flightItem()
	item.TravelDates = ptr("2099-07-01 to 2099-07-08")

	res, err := r.Resolve(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, 300.0, res.Price)
	assert.Equal(t, "Delta to Paris", res.DisplayName)

	calls := flights.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "2099-07-01 to 2099-07-08", calls[0].DepartureDate)
}

func TestResolve_FlightFallsBackToOtherResults(t *testing.T) {
	flights := stub.NewFlightService()
	flights.SetRoute("NYC", "Paris", &pricing.FlightSearchResult{
		OtherResults: []pricing.FlightResult{{Price: 410}},
	})
	r := newResolver(flights, nil)

	res, err := r.Resolve(context.Background(), flightItem())
	require.NoError(t, err)
	assert.Equal(t, 410.0, res.Price)
	// No airline: item name is used
	assert.Equal(t, "Summer in Paris to Paris", res.DisplayName)

	// No travel dates: one month from now
	assert.Equal(t, "2025-03-03", flights.Calls()[0].DepartureDate)
}

func TestResolve_FlightMissingFields(t *testing.T) {
	flights := stub.NewFlightService()
	r := newResolver(flights, nil)

	noOrigin := flightItem()
	noOrigin.OriginCity = nil
	noDest := flightItem()
	noDest.Destination = ptr("  ")

	for _, item := range []*domain.TrackedItem{noOrigin, noDest} {
		_, err := r.Resolve(context.Background(), item)
		reason, ok := ReasonOf(err)
		require.True(t, ok, "expected ResolutionError, got %v", err)
		assert.Equal(t, ReasonMissingFields, reason)
	}
	assert.Empty(t, flights.Calls(), "provider must not be called without required fields")
}

func TestResolve_FlightNoResults(t *testing.T) {
	r := newResolver(stub.NewFlightService(), nil)

	_, err := r.Resolve(context.Background(), flightItem())
	reason, _ := ReasonOf(err)
	assert.Equal(t, ReasonNoResults, reason)
}

func TestResolve_ProviderError(t *testing.T) {
	flights := stub.NewFlightService()
	cause := errors.New("gateway timeout")
	flights.Err = cause
	r := newResolver(flights, nil)

	_, err := r.Resolve(context.Background(), flightItem())

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ReasonProviderError, re.Reason)
	assert.Equal(t, "f1", re.ItemID)
	assert.ErrorIs(t, err, cause)
}

func TestResolve_ProviderPanicIsContained(t *testing.T) {
	hotels := stub.NewHotelService()
	hotels.SearchFunc = func(context.Context, pricing.HotelQuery) (*pricing.HotelSearchResult, error) {
		panic("nil map write")
	}
	r := newResolver(nil, hotels)

	var err error
	require.NotPanics(t, func() {
		_, err = r.Resolve(context.Background(), hotelItem())
	})
	reason, _ := ReasonOf(err)
	assert.Equal(t, ReasonProviderError, reason)
}

func TestResolve_Hotel(t *testing.T) {
	hotels := stub.NewHotelService()
	hotels.SetDestination("Rome", &pricing.HotelSearchResult{
		Hotels: []pricing.HotelResult{{Name: "Hotel Artemide", PricePerNight: 95}, {Name: "Other", PricePerNight: 50}},
	})
	r := newResolver(nil, hotels)

	res, err := r.Resolve(context.Background(), hotelItem())
	require.NoError(t, err)
	assert.Equal(t, 95.0, res.Price)
	assert.Equal(t, "Hotel Artemide", res.DisplayName)

	calls := hotels.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "2025-03-03", calls[0].CheckInDate)
	assert.Equal(t, calls[0].CheckInDate, calls[0].CheckOutDate)
}

func TestResolve_HotelNameFallbackAndErrors(t *testing.T) {
	hotels := stub.NewHotelService()
	hotels.SetDestination("Rome", &pricing.HotelSearchResult{Hotels: []pricing.HotelResult{{PricePerNight: 80}}})
	r := newResolver(nil, hotels)

	res, err := r.Resolve(context.Background(), hotelItem())
	require.NoError(t, err)
	assert.Equal(t, "Rome stay", res.DisplayName)

	noDest := hotelItem()
	noDest.Destination = nil
	_, err = r.Resolve(context.Background(), noDest)
	reason, _ := ReasonOf(err)
	assert.Equal(t, ReasonMissingFields, reason)

	elsewhere := hotelItem()
	elsewhere.Destination = ptr("Oslo")
	_, err = r.Resolve(context.Background(), elsewhere)
	reason, _ = ReasonOf(err)
	assert.Equal(t, ReasonNoResults, reason)
}

func TestResolve_UnsupportedType(t *testing.T) {
	r := newResolver(nil, nil)
	item := flightItem()
	item.ItemType = "Train"

	_, err := r.Resolve(context.Background(), item)
	reason, _ := ReasonOf(err)
	assert.Equal(t, ReasonUnsupportedType, reason)
}

func TestResolve_ProviderConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	flights := stub.NewFlightService()
	flights.SearchFunc = func(context.Context, pricing.FlightQuery) (*pricing.FlightSearchResult, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return &pricing.FlightSearchResult{BestResults: []pricing.FlightResult{{Price: 1}}}, nil
	}

	r := New(Options{Flights: flights, FlightConcurrency: 2})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), flightItem())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestResolve_RecordsProviderLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)

	flights := stub.NewFlightService()
	flights.Err = errors.New("down")
	r := New(Options{Flights: flights, Metrics: metrics})

	_, _ = r.Resolve(context.Background(), flightItem())

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.ProviderCallLatency))
}
