// Package formatting renders dashboard numbers and dates for display.
package formatting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// NotAvailable is shown for missing or unreadable dates and for non-finite numbers
const NotAvailable = "N/A"

// maxCents is the largest amount go-money can hold
var maxCents = decimal.NewFromInt(math.MaxInt64)

var compactUnits = []struct {
	threshold decimal.Decimal
	suffix    string
}{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "K"},
}

// Currency formats an amount as US dollars with cents, e.g. "$1,234.56"
func Currency(amount float64) string {
	if !isFinite(amount) {
		return NotAvailable
	}
	cents := decimal.NewFromFloat(amount).Shift(2).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return largeCurrency(cents)
	}
	return money.New(cents.IntPart(), money.USD).Display()
}

// largeCurrency renders a cent amount beyond int64 in the same layout as Currency
func largeCurrency(cents decimal.Decimal) string {
	sign := ""
	if cents.IsNegative() {
		sign = "-"
		cents = cents.Neg()
	}
	whole := cents.Shift(-2).Truncate(0)
	frac := cents.Sub(whole.Shift(2)).IntPart()
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.BigComma(whole.BigInt()), frac)
}

// CompactCurrency formats an amount in short notation with at most one decimal, e.g. "$1.2M"
func CompactCurrency(amount float64) string {
	if !isFinite(amount) {
		return NotAvailable
	}
	value := decimal.NewFromFloat(amount)
	sign := ""
	if value.IsNegative() {
		sign = "-"
		value = value.Neg()
	}

	for i, unit := range compactUnits {
		if value.GreaterThanOrEqual(unit.threshold) {
			scaled := value.Div(unit.threshold).Round(1)
			// 999.96K rounds up into the next unit
			if i > 0 && scaled.GreaterThanOrEqual(decimal.NewFromInt(1000)) {
				prev := compactUnits[i-1]
				return sign + "$" + trimZero(value.Div(prev.threshold).Round(1)) + prev.suffix
			}
			return sign + "$" + trimZero(scaled) + unit.suffix
		}
	}

	rounded := value.Round(1)
	if rounded.GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		return sign + "$1K"
	}
	return sign + "$" + trimZero(rounded)
}

// PercentFromPrice renders a [0,1] price as a percentage with one decimal, e.g. "45.7%"
func PercentFromPrice(price float64) string {
	if !isFinite(price) {
		return NotAvailable
	}
	return decimal.NewFromFloat(price).Shift(2).StringFixed(1) + "%"
}

// Percent renders a value that is already a percentage, e.g. "66.7%"
func Percent(value float64) string {
	if !isFinite(value) {
		return NotAvailable
	}
	return decimal.NewFromFloat(value).StringFixed(1) + "%"
}

// Quantity renders a share count with thousands separators and two decimals
func Quantity(value float64) string {
	if !isFinite(value) {
		return NotAvailable
	}
	return humanize.FormatFloat("#,###.##", value)
}

// Date renders an ISO timestamp as "Jan 2, 2026"; missing or unreadable values read "N/A"
func Date(value *string) string {
	if value == nil {
		return NotAvailable
	}
	return DateString(*value)
}

// DateString is Date for a plain string; the empty string reads "N/A"
func DateString(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return NotAvailable
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format("Jan 2, 2006")
		}
	}
	return NotAvailable
}

// Ago renders how long ago t was, e.g. "3 minutes ago"
func Ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func trimZero(d decimal.Decimal) string {
	s := d.StringFixed(1)
	return strings.TrimSuffix(s, ".0")
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
