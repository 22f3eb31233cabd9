// Package billing computes line subtotals, VAT buckets and order totals.
//
// Every intermediate amount is rounded on its own because each one is printed
// on the invoice and the printed figures have to reconcile to the cent.
package billing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/diewo77/go-orders/internal/money"
	"github.com/shopspring/decimal"
)

var (
	// ErrDiscountOutOfRange is returned for a line discount outside 0..100 percent.
	ErrDiscountOutOfRange = errors.New("discount must be between 0 and 100")
	// ErrNegativeQuantity is returned for a line with a quantity below zero.
	ErrNegativeQuantity = errors.New("quantity must not be negative")
)

var hundred = decimal.NewFromInt(100)

// Line is anything that contributes to an order total: order items and fees.
type Line interface {
	UnitPrice() decimal.Decimal
	Qty() int
	DiscountPercent() decimal.Decimal
	VAT() decimal.Decimal
}

// Subtotal is the rounded breakdown of a single line.
type Subtotal struct {
	WithoutDiscount decimal.Decimal `json:"without_discount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	// Discount is Subtotal - WithoutDiscount and therefore never positive.
	Discount decimal.Decimal `json:"discount"`
}

// Bucket groups line subtotals sharing one VAT rate.
type Bucket struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
	VAT    decimal.Decimal `json:"vat"`
}

// Key is the canonical text form of the bucket rate ("8.1", "0").
func (b Bucket) Key() string { return RateKey(b.Rate) }

// Totals is the result of an order calculation.
type Totals struct {
	WithoutVAT decimal.Decimal `json:"without_vat"`
	VAT        decimal.Decimal `json:"vat"`
	Total      decimal.Decimal `json:"total"`
	Buckets    []Bucket        `json:"buckets"`
}

// RateKey returns the bucket key of a VAT rate.
func RateKey(rate decimal.Decimal) string { return rate.String() }

// Calculator applies one rounding increment to every step.
type Calculator struct {
	Increment decimal.Decimal
}

// New returns a calculator rounding to money.DefaultIncrement.
func New() Calculator { return Calculator{Increment: money.DefaultIncrement} }

// NewWithIncrement rejects non-positive increments up front.
func NewWithIncrement(increment decimal.Decimal) (Calculator, error) {
	if increment.Sign() <= 0 {
		return Calculator{}, money.ErrInvalidIncrement
	}
	return Calculator{Increment: increment}, nil
}

func (c Calculator) round(v decimal.Decimal) decimal.Decimal {
	inc := c.Increment
	if inc.IsZero() {
		inc = money.DefaultIncrement
	}
	r, err := money.RoundTo(v, inc)
	if err != nil {
		// negative increments are rejected by NewWithIncrement
		panic(err)
	}
	return r
}

// Line computes the subtotal of unitPrice × quantity with a percentage discount.
func (c Calculator) Line(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) (Subtotal, error) {
	if discount.LessThan(decimal.Zero) || discount.GreaterThan(hundred) {
		return Subtotal{}, fmt.Errorf("discount %s: %w", discount, ErrDiscountOutOfRange)
	}
	if quantity < 0 {
		return Subtotal{}, fmt.Errorf("quantity %d: %w", quantity, ErrNegativeQuantity)
	}
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	without := c.round(gross)
	sub := c.round(gross.Mul(hundred.Sub(discount)).Div(hundred))
	return Subtotal{
		WithoutDiscount: without,
		Subtotal:        sub,
		Discount:        sub.Sub(without),
	}, nil
}

// Fee is Line with an implicit quantity of one.
func (c Calculator) Fee(price, discount decimal.Decimal) (Subtotal, error) {
	return c.Line(price, 1, discount)
}

// LineSubtotal computes the breakdown of an order line.
func (c Calculator) LineSubtotal(l Line) (Subtotal, error) {
	return c.Line(l.UnitPrice(), l.Qty(), l.DiscountPercent())
}

// VATBuckets sums discounted line subtotals per VAT rate, ordered by rate.
func (c Calculator) VATBuckets(lines []Line) ([]Bucket, error) {
	byKey := map[string]*Bucket{}
	for _, l := range lines {
		st, err := c.LineSubtotal(l)
		if err != nil {
			return nil, err
		}
		key := RateKey(l.VAT())
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Rate: l.VAT(), Amount: decimal.Zero}
			byKey[key] = b
		}
		b.Amount = b.Amount.Add(st.Subtotal)
	}
	buckets := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		b.Amount = c.round(b.Amount)
		b.VAT = c.round(b.Amount.Mul(b.Rate).Div(hundred))
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Rate.LessThan(buckets[j].Rate) })
	return buckets, nil
}

// TotalVAT is the rounded sum of the individually rounded per-rate VAT amounts.
func (c Calculator) TotalVAT(lines []Line) (decimal.Decimal, error) {
	buckets, err := c.VATBuckets(lines)
	if err != nil {
		return decimal.Zero, err
	}
	return c.vatOf(buckets), nil
}

func (c Calculator) vatOf(buckets []Bucket) decimal.Decimal {
	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.VAT)
	}
	return c.round(total)
}

// Totals combines items and fees into the order totals. No lines is a zero
// total, not an error.
func (c Calculator) Totals(items, fees []Line) (Totals, error) {
	all := make([]Line, 0, len(items)+len(fees))
	all = append(all, items...)
	all = append(all, fees...)

	sum := decimal.Zero
	for _, l := range all {
		st, err := c.LineSubtotal(l)
		if err != nil {
			return Totals{}, err
		}
		sum = sum.Add(st.Subtotal)
	}
	buckets, err := c.VATBuckets(all)
	if err != nil {
		return Totals{}, err
	}
	withoutVAT := c.round(sum)
	vat := c.vatOf(buckets)
	return Totals{
		WithoutVAT: withoutVAT,
		VAT:        vat,
		Total:      c.round(withoutVAT.Add(vat)),
		Buckets:    buckets,
	}, nil
}

// SimpleLine is a value Line, handy when no persisted row exists.
type SimpleLine struct {
	Price    decimal.Decimal
	Quantity int
	Discount decimal.Decimal
	Rate     decimal.Decimal
}

func (l SimpleLine) UnitPrice() decimal.Decimal       { return l.Price }
func (l SimpleLine) Qty() int                         { return l.Quantity }
func (l SimpleLine) DiscountPercent() decimal.Decimal { return l.Discount }
func (l SimpleLine) VAT() decimal.Decimal             { return l.Rate }
