package stub

import (
	"context"
	"errors"
	"testing"

	"travel-price-watch/internal/pricing"
)

func TestFlightService(t *testing.T) {
	s := NewFlightService()
	s.SetRoute("NYC", "Paris", &pricing.FlightSearchResult{BestResults: []pricing.FlightResult{{Price: 300}}})
	ctx := context.Background()

	res, err := s.SearchFlights(ctx, pricing.FlightQuery{Origin: "nyc ", Destination: "PARIS"})
	if err != nil {
		t.Fatalf("SearchFlights: %v", err)
	}
	if len(res.Candidates()) != 1 {
		t.Errorf("expected canned result, got %+v", res)
	}

	res, err = s.SearchFlights(ctx, pricing.FlightQuery{Origin: "LAX", Destination: "Tokyo"})
	if err != nil || len(res.Candidates()) != 0 {
		t.Errorf("expected empty result for unknown route, got %+v, %v", res, err)
	}

	if len(s.Calls()) != 2 {
		t.Errorf("expected 2 recorded calls, got %d", len(s.Calls()))
	}

	s.Err = errors.New("down")
	if _, err := s.SearchFlights(ctx, pricing.FlightQuery{}); err == nil {
		t.Error("expected injected error")
	}
}

func TestHotelService(t *testing.T) {
	s := NewHotelService()
	s.SetDestination("Rome", &pricing.HotelSearchResult{Hotels: []pricing.HotelResult{{Name: "Grand", PricePerNight: 99}}})

	res, err := s.SearchHotels(context.Background(), pricing.HotelQuery{Destination: "rome"})
	if err != nil {
		t.Fatalf("SearchHotels: %v", err)
	}
	if len(res.Hotels) != 1 || res.Hotels[0].Name != "Grand" {
		t.Errorf("unexpected result %+v", res)
	}

	s.SearchFunc = func(context.Context, pricing.HotelQuery) (*pricing.HotelSearchResult, error) {
		return nil, errors.New("custom")
	}
	if _, err := s.SearchHotels(context.Background(), pricing.HotelQuery{}); err == nil || err.Error() != "custom" {
		t.Errorf("expected SearchFunc override, got %v", err)
	}
}
