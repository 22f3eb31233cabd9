package validation

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Violations maps a field name to a violation code ("required", "out_of_range").
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v.Add(field, "must_be_positive")
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.Sign() < 0 {
		v.Add(field, "must_not_be_negative")
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v.Add(field, "out_of_range")
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "invalid_choice")
}

// Match checks value against re; empty values are left to Required.
func Match(field, value string, re *regexp.Regexp, v Violations) {
	if value != "" && !re.MatchString(value) {
		v.Add(field, "invalid_format")
	}
}

// Check records code for field when ok is false.
func Check(field string, ok bool, code string, v Violations) {
	if !ok {
		v.Add(field, code)
	}
}
