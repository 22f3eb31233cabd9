package models

import (
	"fmt"
	"testing"

	"github.com/diewo77/go-orders/internal/qrbill"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestValidVATRate(t *testing.T) {
	for _, s := range []string{"0", "2.6", "3.8", "8.1", "7.7", "8.10"} {
		if !ValidVATRate(decimal.RequireFromString(s)) {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []string{"8", "19", "-8.1"} {
		if ValidVATRate(decimal.RequireFromString(s)) {
			t.Errorf("%s should be invalid", s)
		}
	}
}

func TestAddress_Name(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{"company wins", Address{Company: "Muster AG", FirstName: "Anna", LastName: "Muster"}, "Muster AG"},
		{"person", Address{FirstName: "Anna", LastName: "Muster"}, "Anna Muster"},
		{"last name only", Address{LastName: "Muster"}, "Muster"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.addr.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCustomer_Shipping(t *testing.T) {
	c := &Customer{Address: Address{City: "Bern"}}
	if c.Shipping().City != "Bern" {
		t.Errorf("expected billing fallback")
	}
	c.ShippingAddress = Address{City: "Thun"}
	if c.Shipping().City != "Thun" {
		t.Errorf("expected shipping address")
	}
}

func TestOrder_Locks(t *testing.T) {
	o := &Order{}
	if o.LinesLocked() || o.DetailsLocked() {
		t.Fatal("new order must be editable")
	}
	o.Shipped = true
	if !o.LinesLocked() || o.DetailsLocked() {
		t.Error("shipped order: lines locked, details editable")
	}
	o.Shipped, o.Paid = false, true
	if !o.LinesLocked() || !o.DetailsLocked() {
		t.Error("paid order: everything locked")
	}
}

func TestPaymentReceiver_Validate(t *testing.T) {
	tests := []struct {
		name string
		r    PaymentReceiver
		want map[string]string
	}{
		{
			name: "valid qrr",
			r:    PaymentReceiver{Name: "Velo GmbH", Mode: qrbill.ModeQRR, QRIBAN: "CH44 3199 9123 0008 8901 2", Country: "CH"},
			want: map[string]string{},
		},
		{
			name: "valid non with uid",
			r:    PaymentReceiver{Name: "Velo GmbH", Mode: qrbill.ModeNON, IBAN: "CH93 0076 2011 6238 5295 7", Country: "CH", UID: "CHE-116.281.710"},
			want: map[string]string{},
		},
		{
			name: "qrr without qr-iban",
			r:    PaymentReceiver{Name: "Velo GmbH", Mode: qrbill.ModeQRR, IBAN: "CH93 0076 2011 6238 5295 7", Country: "CH"},
			want: map[string]string{"qr_iban": "required"},
		},
		{
			name: "qrr with plain iban",
			r:    PaymentReceiver{Name: "Velo GmbH", Mode: qrbill.ModeQRR, QRIBAN: "CH93 0076 2011 6238 5295 7", Country: "CH"},
			want: map[string]string{"qr_iban": "invalid_qr_iban"},
		},
		{
			name: "non with qr-iban",
			r:    PaymentReceiver{Name: "Velo GmbH", Mode: qrbill.ModeNON, IBAN: "CH44 3199 9123 0008 8901 2", Country: "CH"},
			want: map[string]string{"iban": "invalid_iban"},
		},
		{
			name: "everything wrong",
			r:    PaymentReceiver{Mode: "SCOR", Country: "che", UID: "CHE-123.456.789"},
			want: map[string]string{"name": "required", "mode": "invalid_choice", "country": "invalid_format", "uid": "invalid_uid"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.Validate()
			if len(got) != len(tt.want) {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&PaymentReceiver{}, &Customer{}, &Order{}, &OrderItem{}, &OrderFee{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestOrderViews(t *testing.T) {
	db := setupDB(t)
	recv := PaymentReceiver{Name: "Velo GmbH", Mode: qrbill.ModeQRR, Country: "CH"}
	if err := db.Create(&recv).Error; err != nil {
		t.Fatalf("create receiver: %v", err)
	}
	orders := []Order{
		{PaymentReceiverID: recv.ID},
		{PaymentReceiverID: recv.ID, Paid: true},
		{PaymentReceiverID: recv.ID, Shipped: true},
		{PaymentReceiverID: recv.ID, Paid: true, Shipped: true},
	}
	if err := db.Create(&orders).Error; err != nil {
		t.Fatalf("create orders: %v", err)
	}

	counts := map[OrderView]int64{ViewAll: 4, ViewUnpaid: 2, ViewUnshipped: 2, ViewPaid: 2}
	for view, want := range counts {
		scope, ok := view.Scope()
		if !ok {
			t.Fatalf("view %q unknown", view)
		}
		var n int64
		if err := db.Model(&Order{}).Scopes(scope).Count(&n).Error; err != nil {
			t.Fatalf("count %q: %v", view, err)
		}
		if n != want {
			t.Errorf("view %q = %d, want %d", view, n, want)
		}
	}
	if _, ok := OrderView("archived").Scope(); ok {
		t.Error("unknown view accepted")
	}
}

func TestOrderDecimalRoundTrip(t *testing.T) {
	db := setupDB(t)
	recv := PaymentReceiver{Name: "Velo GmbH", Mode: qrbill.ModeNON, Country: "CH"}
	db.Create(&recv)
	o := Order{
		PaymentReceiverID: recv.ID,
		Total:             decimal.RequireFromString("118.10"),
		Billing:           Address{FirstName: "Anna", LastName: "Muster", City: "Bern"},
		Items: []OrderItem{{
			Description: "Kette",
			Price:       decimal.RequireFromString("19.90"),
			Quantity:    2,
			VATRate:     VATNormal,
			Discount:    decimal.NewFromInt(10),
		}},
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Order
	if err := db.Preload("Items").First(&got, o.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Total.Equal(o.Total) || got.Billing.City != "Bern" {
		t.Errorf("order = %+v", got)
	}
	if len(got.Items) != 1 || !got.Items[0].VATRate.Equal(VATNormal) || !got.Items[0].Price.Equal(decimal.RequireFromString("19.9")) {
		t.Errorf("items = %+v", got.Items)
	}
}
