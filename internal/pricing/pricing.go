// Package pricing defines the flight and hotel search collaborators and an
// HTTP client for a JSON pricing gateway.
package pricing

import "context"

// FlightQuery is a one-way flight search.
type FlightQuery struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
}

// FlightResult is one priced flight option.
type FlightResult struct {
	Price   float64 `json:"price"`
	Airline string  `json:"airline,omitempty"`
}

// FlightSearchResult holds the provider's ranked options.
type FlightSearchResult struct {
	BestResults  []FlightResult `json:"bestResults"`
	OtherResults []FlightResult `json:"otherResults"`
}

// Candidates returns best results followed by other results, in provider order.
func (r *FlightSearchResult) Candidates() []FlightResult {
	if r == nil {
		return nil
	}
	out := make([]FlightResult, 0, len(r.BestResults)+len(r.OtherResults))
	out = append(out, r.BestResults...)
	out = append(out, r.OtherResults...)
	return out
}

// HotelQuery is a hotel availability search.
type HotelQuery struct {
	Destination  string `json:"destination"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
}

// HotelResult is one priced hotel option.
type HotelResult struct {
	Name          string  `json:"name,omitempty"`
	PricePerNight float64 `json:"pricePerNight"`
}

// HotelSearchResult holds the provider's hotels, in ranked order.
type HotelSearchResult struct {
	Hotels []HotelResult `json:"hotels"`
}

// FlightPricingService searches flights.
type FlightPricingService interface {
	SearchFlights(ctx context.Context, q FlightQuery) (*FlightSearchResult, error)
}

// HotelPricingService searches hotels.
type HotelPricingService interface {
	SearchHotels(ctx context.Context, q HotelQuery) (*HotelSearchResult, error)
}
