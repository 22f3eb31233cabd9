// Package conditions parses payment conditions such as "2:10;0:30": pay 2 %
// less within 10 days, the full amount within 30 days.
package conditions

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-orders/internal/money"
	"github.com/shopspring/decimal"
)

// ErrMalformed is returned for any string that is not "percent:days;...;0:days"
// with percentages of at most 100.
var ErrMalformed = errors.New("malformed payment conditions")

var pattern = regexp.MustCompile(`^([0-9]+(\.[0-9]+)?:[0-9]+;)*0:[0-9]+$`)

var hundred = decimal.NewFromInt(100)

// Condition is one parsed clause.
type Condition struct {
	Days    int             `json:"days"`
	Date    time.Time       `json:"date"`
	Percent decimal.Decimal `json:"percent"`
	// Price is the amount payable up to Date.
	Price decimal.Decimal `json:"price"`
}

// Validate checks the "percent:days;...;0:days" form and that no percentage
// exceeds 100. A string passing Validate always parses.
func Validate(s string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%q: %w", s, ErrMalformed)
	}
	for _, clause := range strings.Split(s, ";") {
		pct, _, _ := strings.Cut(clause, ":")
		p, err := decimal.NewFromString(pct)
		if err != nil {
			return fmt.Errorf("percent %q: %w", pct, ErrMalformed)
		}
		if p.GreaterThan(hundred) {
			return fmt.Errorf("percent %s above 100: %w", p, ErrMalformed)
		}
	}
	return nil
}

// Parse expands s against the order date and total, ordered by date. Prices
// are rounded to money.DefaultIncrement.
func Parse(s string, base time.Time, total decimal.Decimal) ([]Condition, error) {
	return ParseRounded(s, base, total, money.DefaultIncrement)
}

// ParseRounded is Parse with prices rounded to increment.
func ParseRounded(s string, base time.Time, total, increment decimal.Decimal) ([]Condition, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	clauses := strings.Split(s, ";")
	out := make([]Condition, 0, len(clauses))
	for _, clause := range clauses {
		pct, days, _ := strings.Cut(clause, ":")
		p, err := decimal.NewFromString(pct)
		if err != nil {
			return nil, fmt.Errorf("percent %q: %w", pct, ErrMalformed)
		}
		d, err := strconv.Atoi(days)
		if err != nil {
			return nil, fmt.Errorf("days %q: %w", days, ErrMalformed)
		}
		price, err := money.RoundTo(total.Mul(hundred.Sub(p)).Div(hundred), increment)
		if err != nil {
			return nil, err
		}
		out = append(out, Condition{
			Days:    d,
			Date:    base.AddDate(0, 0, d),
			Percent: p,
			Price:   price,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Due returns the terminal 0 % entry, the plain due date. It is the zero
// Condition for an empty list.
func Due(list []Condition) Condition {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Percent.IsZero() {
			return list[i]
		}
	}
	return Condition{}
}

// Applicable returns the cheapest condition still open on the given day.
func Applicable(list []Condition, on time.Time) (Condition, bool) {
	day := dateOnly(on)
	var best Condition
	found := false
	for _, c := range list {
		if dateOnly(c.Date).Before(day) {
			continue
		}
		if !found || c.Price.LessThan(best.Price) {
			best, found = c, true
		}
	}
	return best, found
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
