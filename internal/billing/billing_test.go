package billing

import (
	"errors"
	"testing"

	"github.com/diewo77/go-orders/internal/money"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(price string, qty int, discount, rate string) SimpleLine {
	return SimpleLine{Price: d(price), Quantity: qty, Discount: d(discount), Rate: d(rate)}
}

func TestLineSubtotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		qty      int
		discount string
		without  string
		subtotal string
		disc     string
	}{
		{"no discount", "100.00", 1, "0", "100.00", "100.00", "0.00"},
		{"ten percent", "5.55", 17, "10", "94.35", "84.90", "-9.45"},
		{"full discount", "12.30", 2, "100", "24.60", "0.00", "-24.60"},
		{"zero quantity", "9.95", 0, "0", "0.00", "0.00", "0.00"},
		{"rounding up", "3.33", 3, "0", "10.00", "10.00", "0.00"},
	}
	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := c.Line(d(tt.price), tt.qty, d(tt.discount))
			if err != nil {
				t.Fatal(err)
			}
			if money.Format(st.WithoutDiscount) != tt.without {
				t.Errorf("WithoutDiscount = %s, want %s", money.Format(st.WithoutDiscount), tt.without)
			}
			if money.Format(st.Subtotal) != tt.subtotal {
				t.Errorf("Subtotal = %s, want %s", money.Format(st.Subtotal), tt.subtotal)
			}
			if money.Format(st.Discount) != tt.disc {
				t.Errorf("Discount = %s, want %s", money.Format(st.Discount), tt.disc)
			}
			if st.Discount.Sign() > 0 {
				t.Errorf("discount must never be positive, got %s", st.Discount)
			}
		})
	}
}

func TestLineRejectsOutOfRangeDiscount(t *testing.T) {
	c := New()
	for _, disc := range []string{"-1", "100.01", "150"} {
		if _, err := c.Line(d("10"), 1, d(disc)); !errors.Is(err, ErrDiscountOutOfRange) {
			t.Errorf("discount %s: err = %v", disc, err)
		}
	}
	if _, err := c.Line(d("10"), -2, decimal.Zero); !errors.Is(err, ErrNegativeQuantity) {
		t.Errorf("negative quantity: err = %v", err)
	}
}

func TestFeeUsesQuantityOne(t *testing.T) {
	st, err := New().Fee(d("7.90"), d("50"))
	if err != nil {
		t.Fatal(err)
	}
	if money.Format(st.Subtotal) != "3.95" {
		t.Errorf("fee subtotal = %s", money.Format(st.Subtotal))
	}
}

func TestVATBuckets(t *testing.T) {
	lines := []Line{
		line("10.00", 3, "0", "8.1"),
		line("20.00", 1, "0", "2.6"),
		line("4.45", 1, "0", "8.1"),
		line("5.00", 1, "0", "0"),
	}
	buckets, err := New().VATBuckets(lines)
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets", len(buckets))
	}
	want := []struct{ key, amount, vat string }{
		{"0", "5.00", "0.00"},
		{"2.6", "20.00", "0.50"},
		{"8.1", "34.45", "2.80"},
	}
	for i, w := range want {
		b := buckets[i]
		if b.Key() != w.key || money.Format(b.Amount) != w.amount || money.Format(b.VAT) != w.vat {
			t.Errorf("bucket %d = {%s %s %s}, want %v", i, b.Key(), money.Format(b.Amount), money.Format(b.VAT), w)
		}
	}
}

func TestTotalVATSingleRate(t *testing.T) {
	lines := []Line{
		line("19.90", 2, "0", "8.1"),
		line("7.15", 3, "5", "8.1"),
	}
	c := New()
	got, err := c.TotalVAT(lines)
	if err != nil {
		t.Fatal(err)
	}
	sum := decimal.Zero
	for _, l := range lines {
		st, _ := c.LineSubtotal(l)
		sum = sum.Add(st.Subtotal)
	}
	want := money.Round(money.Round(sum).Mul(d("8.1")).Div(d("100")))
	if !got.Equal(want) {
		t.Errorf("TotalVAT = %s, want %s", got, want)
	}
}

func TestTotalsEndToEnd(t *testing.T) {
	items := []Line{line("100.00", 1, "0", "8.1")}
	fees := []Line{line("10.00", 1, "0", "0.0")}
	tot, err := New().Totals(items, fees)
	if err != nil {
		t.Fatal(err)
	}
	if money.Format(tot.WithoutVAT) != "110.00" {
		t.Errorf("WithoutVAT = %s", money.Format(tot.WithoutVAT))
	}
	if money.Format(tot.VAT) != "8.10" {
		t.Errorf("VAT = %s", money.Format(tot.VAT))
	}
	if money.Format(tot.Total) != "118.10" {
		t.Errorf("Total = %s", money.Format(tot.Total))
	}
}

func TestTotalsEmpty(t *testing.T) {
	tot, err := New().Totals(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if money.Format(tot.Total) != "0.00" || len(tot.Buckets) != 0 {
		t.Errorf("empty totals = %+v", tot)
	}
}

func TestTotalsPropagatesLineErrors(t *testing.T) {
	_, err := New().Totals([]Line{line("1", 1, "101", "8.1")}, nil)
	if !errors.Is(err, ErrDiscountOutOfRange) {
		t.Errorf("err = %v", err)
	}
}

func TestNewWithIncrement(t *testing.T) {
	if _, err := NewWithIncrement(decimal.Zero); !errors.Is(err, money.ErrInvalidIncrement) {
		t.Errorf("zero increment err = %v", err)
	}
	c, err := NewWithIncrement(d("0.01"))
	if err != nil {
		t.Fatal(err)
	}
	st, _ := c.Line(d("5.55"), 17, d("10"))
	if money.Format(st.Subtotal) != "84.92" {
		t.Errorf("cent rounding subtotal = %s", money.Format(st.Subtotal))
	}
}
