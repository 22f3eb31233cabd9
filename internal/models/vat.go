package models

import "github.com/shopspring/decimal"

// Swiss VAT rates in percent. The 2024 reform replaced 2.5/3.7/7.7; the old
// rates stay accepted for orders dated before it.
var (
	VATZero    = decimal.Zero
	VATReduced = decimal.RequireFromString("2.6")
	VATLodging = decimal.RequireFromString("3.8")
	VATNormal  = decimal.RequireFromString("8.1")

	VATReducedLegacy = decimal.RequireFromString("2.5")
	VATLodgingLegacy = decimal.RequireFromString("3.7")
	VATNormalLegacy  = decimal.RequireFromString("7.7")
)

// VATRates lists every accepted rate.
var VATRates = []decimal.Decimal{
	VATZero, VATReduced, VATLodging, VATNormal,
	VATReducedLegacy, VATLodgingLegacy, VATNormalLegacy,
}

// ValidVATRate reports whether rate is one of VATRates.
func ValidVATRate(rate decimal.Decimal) bool {
	for _, r := range VATRates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}
