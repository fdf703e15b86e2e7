// Package alert decides whether a resolved price meets a user's target.
package alert

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"travel-price-watch/internal/domain"
)

// pricePlaces is the precision prices are compared and rendered at.
const pricePlaces = 2

// Evaluate compares resolvedPrice against targetPrice at cent precision.
// A price exactly at target is a hit. Pure: no side effects, no I/O.
//
// Both prices are rounded half away from zero to whole cents before the
// comparison, so it is not an exact float comparison: 100.004 against a
// target of 100 is a hit, 100.005 is not.
func Evaluate(resolvedPrice, targetPrice float64, displayName string) domain.AlertStatus {
	resolved := decimal.NewFromFloat(resolvedPrice).Round(pricePlaces)
	target := decimal.NewFromFloat(targetPrice).Round(pricePlaces)

	if resolved.LessThanOrEqual(target) {
		return domain.AlertStatus{
			ShouldAlert:  true,
			AlertMessage: fmt.Sprintf("Price alert! %s has dropped to %s.", displayName, FormatPrice(resolvedPrice)),
		}
	}

	return domain.AlertStatus{
		ShouldAlert:  false,
		AlertMessage: fmt.Sprintf("Current price for %s is %s.", displayName, FormatPrice(resolvedPrice)),
	}
}

// FormatPrice renders a price as "$1,234.50".
func FormatPrice(price float64) string {
	rounded, _ := decimal.NewFromFloat(price).Round(pricePlaces).Float64()
	return "$" + humanize.FormatFloat("#,###.##", rounded)
}
