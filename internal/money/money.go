// Package money holds the rounding and formatting rules used for every amount
// printed on an invoice.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the QR-bill integration emits.
const Currency = "CHF"

// DefaultIncrement is the smallest CHF coin; invoice totals round to it.
var DefaultIncrement = decimal.RequireFromString("0.05")

// ErrInvalidIncrement is returned when a rounding increment is zero or negative.
var ErrInvalidIncrement = errors.New("rounding increment must be positive")

// RoundTo rounds value to the nearest multiple of increment. Ties on the
// quotient go to the even multiple; the result always carries 2 decimals.
func RoundTo(value, increment decimal.Decimal) (decimal.Decimal, error) {
	if increment.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("round %s to %s: %w", value, increment, ErrInvalidIncrement)
	}
	q := value.Div(increment).RoundBank(0)
	return q.Mul(increment).Round(2), nil
}

// Round rounds value to DefaultIncrement.
func Round(value decimal.Decimal) decimal.Decimal {
	r, _ := RoundTo(value, DefaultIncrement)
	return r
}

// Format renders an amount with exactly two decimals ("118.10").
func Format(value decimal.Decimal) string {
	return value.StringFixed(2)
}

// Parse reads a user supplied amount. Apostrophes used as Swiss thousands
// separators and a decimal comma are accepted.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// Sum adds all values without rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
