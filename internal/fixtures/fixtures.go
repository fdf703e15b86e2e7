// Package fixtures loads users, tracked items and canned provider quotes
// from YAML for local runs and demos.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/pricing"
	"travel-price-watch/internal/pricing/stub"
	"travel-price-watch/internal/storage"
)

// Set is the content of a fixture file.
type Set struct {
	Users   []User        `yaml:"users"`
	Items   []Item        `yaml:"items"`
	Flights []FlightQuote `yaml:"flights"`
	Hotels  []HotelQuote  `yaml:"hotels"`
}

// User is a fixture user.
type User struct {
	ID                string  `yaml:"id"`
	Email             *string `yaml:"email"`
	HasPushCapability bool    `yaml:"has_push_capability"`
}

// Item is a fixture tracked item.
type Item struct {
	ID           string  `yaml:"id"`
	OwnerUserID  string  `yaml:"owner_user_id"`
	ItemType     string  `yaml:"item_type"`
	ItemName     string  `yaml:"item_name"`
	OriginCity   *string `yaml:"origin_city"`
	Destination  *string `yaml:"destination"`
	TravelDates  *string `yaml:"travel_dates"`
	TargetPrice  float64 `yaml:"target_price"`
	CurrentPrice float64 `yaml:"current_price"`
}

// Fare is one flight search result.
type Fare struct {
	Price   float64 `yaml:"price"`
	Airline string  `yaml:"airline"`
}

// FlightQuote is the canned search result for a route.
type FlightQuote struct {
	Origin       string `yaml:"origin"`
	Destination  string `yaml:"destination"`
	BestResults  []Fare `yaml:"best_results"`
	OtherResults []Fare `yaml:"other_results"`
}

// Rate is one hotel search result.
type Rate struct {
	Name          string  `yaml:"name"`
	PricePerNight float64 `yaml:"price_per_night"`
}

// HotelQuote is the canned search result for a destination.
type HotelQuote struct {
	Destination string `yaml:"destination"`
	Hotels      []Rate `yaml:"hotels"`
}

// Load reads and validates a fixture file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks ids, item types and ownership references.
func (s *Set) Validate() error {
	users := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.ID == "" {
			return fmt.Errorf("users[%d]: id is required", i)
		}
		if users[u.ID] {
			return fmt.Errorf("users[%d]: duplicate id %q", i, u.ID)
		}
		users[u.ID] = true
	}

	items := make(map[string]bool, len(s.Items))
	for i, it := range s.Items {
		if it.ID == "" {
			return fmt.Errorf("items[%d]: id is required", i)
		}
		if items[it.ID] {
			return fmt.Errorf("items[%d]: duplicate id %q", i, it.ID)
		}
		items[it.ID] = true
		if !users[it.OwnerUserID] {
			return fmt.Errorf("items[%d]: unknown owner %q", i, it.OwnerUserID)
		}
		if _, ok := itemType(it.ItemType); !ok {
			return fmt.Errorf("items[%d]: invalid item_type %q", i, it.ItemType)
		}
	}
	return nil
}

// DomainUsers converts fixture users.
func (s *Set) DomainUsers() []*domain.User {
	out := make([]*domain.User, 0, len(s.Users))
	for _, u := range s.Users {
		out = append(out, &domain.User{
			ID:                u.ID,
			Email:             u.Email,
			HasPushCapability: u.HasPushCapability,
		})
	}
	return out
}

// DomainItems converts fixture items.
func (s *Set) DomainItems() []*domain.TrackedItem {
	out := make([]*domain.TrackedItem, 0, len(s.Items))
	for _, it := range s.Items {
		typ, _ := itemType(it.ItemType)
		out = append(out, &domain.TrackedItem{
			ID:           it.ID,
			OwnerUserID:  it.OwnerUserID,
			ItemType:     typ,
			ItemName:     it.ItemName,
			OriginCity:   it.OriginCity,
			Destination:  it.Destination,
			TravelDates:  it.TravelDates,
			TargetPrice:  it.TargetPrice,
			CurrentPrice: it.CurrentPrice,
		})
	}
	return out
}

// Seed inserts users then items. Records that already exist are left
// untouched, so seeding a persistent store twice is safe.
func (s *Set) Seed(ctx context.Context, users storage.UserStore, items storage.TrackedItemStore) error {
	for _, u := range s.DomainUsers() {
		if err := users.Insert(ctx, u); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, it := range s.DomainItems() {
		if err := items.Insert(ctx, it); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("seed item %s: %w", it.ID, err)
		}
	}
	return nil
}

// FlightService returns a stub flight provider serving the fixture quotes.
func (s *Set) FlightService() *stub.FlightService {
	svc := stub.NewFlightService()
	for _, q := range s.Flights {
		svc.SetRoute(q.Origin, q.Destination, &pricing.FlightSearchResult{
			BestResults:  toFlightResults(q.BestResults),
			OtherResults: toFlightResults(q.OtherResults),
		})
	}
	return svc
}

// HotelService returns a stub hotel provider serving the fixture quotes.
func (s *Set) HotelService() *stub.HotelService {
	svc := stub.NewHotelService()
	for _, q := range s.Hotels {
		hotels := make([]pricing.HotelResult, 0, len(q.Hotels))
		for _, r := range q.Hotels {
			hotels = append(hotels, pricing.HotelResult{Name: r.Name, PricePerNight: r.PricePerNight})
		}
		svc.SetDestination(q.Destination, &pricing.HotelSearchResult{Hotels: hotels})
	}
	return svc
}

// itemType matches an item type name case-insensitively.
func itemType(name string) (domain.ItemType, bool) {
	for _, t := range []domain.ItemType{domain.ItemTypeFlight, domain.ItemTypeHotel} {
		if strings.EqualFold(name, string(t)) {
			return t, true
		}
	}
	return "", false
}

func toFlightResults(fares []Fare) []pricing.FlightResult {
	out := make([]pricing.FlightResult, 0, len(fares))
	for _, f := range fares {
		out = append(out, pricing.FlightResult{Price: f.Price, Airline: f.Airline})
	}
	return out
}
