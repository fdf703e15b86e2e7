// Package eligibility decides whether a tracked item's travel window is
// still worth re-pricing.
package eligibility

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Classification is the outcome of inspecting a free-text travel date.
type Classification int

const (
	// Unknown means the text could not be interpreted either way.
	Unknown Classification = iota
	// Eligible means the travel window is still ahead.
	Eligible
	// Ineligible means the travel window has already started or passed.
	Ineligible
)

// String returns the string representation of Classification.
func (c Classification) String() string {
	switch c {
	case Eligible:
		return "eligible"
	case Ineligible:
		return "ineligible"
	default:
		return "unknown"
	}
}

// forwardLookingMarkers hint at a relative, future-facing description
// such as "next month" or "7 days for Paris".
var forwardLookingMarkers = []string{"next", "for"}

// Classify inspects travelDates relative to now.
//
// The leading token (up to the first space) is strictly parsed as a calendar
// date; a valid date is Eligible iff it is strictly after now. Text that does
// not parse is Eligible when it contains a forward-looking marker, otherwise
// Unknown. Empty text is Eligible.
func Classify(travelDates string, now time.Time) Classification {
	text := strings.TrimSpace(travelDates)
	if text == "" {
		return Eligible
	}

	token := text
	if i := strings.IndexByte(text, ' '); i >= 0 {
		token = text[:i]
	}

	if date, err := dateparse.ParseStrict(token); err == nil {
		if date.After(now) {
			return Eligible
		}
		return Ineligible
	}

	lower := strings.ToLower(text)
	for _, marker := range forwardLookingMarkers {
		if strings.Contains(lower, marker) {
			return Eligible
		}
	}

	return Unknown
}

// IsEligible applies the fail-open policy: Unknown is treated as eligible so
// a trackable deal is never silently dropped.
func IsEligible(travelDates string, now time.Time) bool {
	return Classify(travelDates, now) != Ineligible
}

// Filter returns the subset of items whose travel dates are eligible at now,
// preserving order. dates extracts the free-text date from an item.
func Filter[T any](items []T, now time.Time, dates func(T) string) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if IsEligible(dates(item), now) {
			result = append(result, item)
		}
	}
	return result
}
