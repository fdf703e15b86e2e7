package resolver

import (
	"errors"
	"fmt"
)

// Reason classifies why an item could not be priced.
type Reason string

const (
	ReasonMissingFields   Reason = "missing-fields"
	ReasonNoResults       Reason = "no-results"
	ReasonProviderError   Reason = "provider-error"
	ReasonUnsupportedType Reason = "unsupported-type"
)

// ResolutionError reports a failed price resolution for one item.
type ResolutionError struct {
	ItemID string
	Reason Reason
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolve item %s: %s", e.ItemID, e.Reason)
	}
	return fmt.Sprintf("resolve item %s: %s: %v", e.ItemID, e.Reason, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the resolution reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
