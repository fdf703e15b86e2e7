package domain

// ItemType represents the kind of travel product a tracked item watches.
type ItemType string

const (
	ItemTypeFlight ItemType = "Flight"
	ItemTypeHotel  ItemType = "Hotel"
)

// String returns the string representation of ItemType.
func (t ItemType) String() string {
	return string(t)
}

// IsValid checks if the item type is a valid value.
func (t ItemType) IsValid() bool {
	return t == ItemTypeFlight || t == ItemTypeHotel
}
