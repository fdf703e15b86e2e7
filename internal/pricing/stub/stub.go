// Package stub provides in-memory pricing services for tests and fixture runs.
package stub

import (
	"context"
	"strings"
	"sync"

	"travel-price-watch/internal/pricing"
)

// RouteKey normalizes an origin/destination pair for lookup.
func RouteKey(origin, destination string) string {
	return strings.ToLower(strings.TrimSpace(origin)) + "|" + strings.ToLower(strings.TrimSpace(destination))
}

// FlightService implements pricing.FlightPricingService from canned results.
// Unknown routes return an empty result.
type FlightService struct {
	mu      sync.Mutex
	results map[string]*pricing.FlightSearchResult
	calls   []pricing.FlightQuery

	// Err, when set, is returned from every search.
	Err error
	// SearchFunc, when set, replaces the canned lookup entirely.
	SearchFunc func(ctx context.Context, q pricing.FlightQuery) (*pricing.FlightSearchResult, error)
}

// NewFlightService creates an empty stub flight service.
func NewFlightService() *FlightService {
	return &FlightService{results: make(map[string]*pricing.FlightSearchResult)}
}

// Compile-time interface check.
var _ pricing.FlightPricingService = (*FlightService)(nil)

// SetRoute registers the result returned for origin to destination.
func (s *FlightService) SetRoute(origin, destination string, result *pricing.FlightSearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[RouteKey(origin, destination)] = result
}

// SearchFlights returns the canned result for the query's route.
func (s *FlightService) SearchFlights(ctx context.Context, q pricing.FlightQuery) (*pricing.FlightSearchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	fn, err := s.SearchFunc, s.Err
	res := s.results[RouteKey(q.Origin, q.Destination)]
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &pricing.FlightSearchResult{}, nil
	}
	return res, nil
}

// Calls returns a copy of the queries received so far.
func (s *FlightService) Calls() []pricing.FlightQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pricing.FlightQuery(nil), s.calls...)
}

// HotelService implements pricing.HotelPricingService from canned results.
// Unknown destinations return an empty result.
type HotelService struct {
	mu      sync.Mutex
	results map[string]*pricing.HotelSearchResult
	calls   []pricing.HotelQuery

	// Err, when set, is returned from every search.
	Err error
	// SearchFunc, when set, replaces the canned lookup entirely.
	SearchFunc func(ctx context.Context, q pricing.HotelQuery) (*pricing.HotelSearchResult, error)
}

// NewHotelService creates an empty stub hotel service.
func NewHotelService() *HotelService {
	return &HotelService{results: make(map[string]*pricing.HotelSearchResult)}
}

// Compile-time interface check.
var _ pricing.HotelPricingService = (*HotelService)(nil)

// SetDestination registers the result returned for destination.
func (s *HotelService) SetDestination(destination string, result *pricing.HotelSearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[strings.ToLower(strings.TrimSpace(destination))] = result
}

// SearchHotels returns the canned result for the query's destination.
func (s *HotelService) SearchHotels(ctx context.Context, q pricing.HotelQuery) (*pricing.HotelSearchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	fn, err := s.SearchFunc, s.Err
	res := s.results[strings.ToLower(strings.TrimSpace(q.Destination))]
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &pricing.HotelSearchResult{}, nil
	}
	return res, nil
}

// Calls returns a copy of the queries received so far.
func (s *HotelService) Calls() []pricing.HotelQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pricing.HotelQuery(nil), s.calls...)
}
