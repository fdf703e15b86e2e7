package domain

import "time"

// AlertStatus is the outcome of the last price evaluation for an item.
type AlertStatus struct {
	ShouldAlert  bool
	AlertMessage string
}

// TrackedItem is a user's saved flight or hotel search with a target price.
// Corresponds to tracked_items table.
type TrackedItem struct {
	ID            string
	OwnerUserID   string
	ItemType      ItemType
	ItemName      string
	OriginCity    *string // flights only (nullable)
	Destination   *string // nullable
	TravelDates   *string // free text, e.g. "2025-07-01 to 2025-07-08" or "next month"
	TargetPrice   float64
	CurrentPrice  float64
	LastCheckedAt time.Time
	AlertStatus   AlertStatus
}

// Origin returns the origin city or "" when unset.
func (i *TrackedItem) Origin() string {
	return deref(i.OriginCity)
}

// DestinationName returns the destination or "" when unset.
func (i *TrackedItem) DestinationName() string {
	return deref(i.Destination)
}

// Dates returns the free-text travel dates or "" when unset.
func (i *TrackedItem) Dates() string {
	return deref(i.TravelDates)
}

// ItemPatch is the only mutation the engine applies to a tracked item.
type ItemPatch struct {
	CurrentPrice  float64
	LastCheckedAt time.Time
	AlertStatus   AlertStatus
}

// ApplyTo overwrites the patched fields on item.
func (p ItemPatch) ApplyTo(item *TrackedItem) {
	item.CurrentPrice = p.CurrentPrice
	item.LastCheckedAt = p.LastCheckedAt
	item.AlertStatus = p.AlertStatus
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Clone returns a deep copy of the item, including optional fields.
func (i *TrackedItem) Clone() *TrackedItem {
	if i == nil {
		return nil
	}
	c := *i
	c.OriginCity = cloneString(i.OriginCity)
	c.Destination = cloneString(i.Destination)
	c.TravelDates = cloneString(i.TravelDates)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
