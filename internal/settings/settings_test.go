package settings

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/diewo77/go-orders/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		kind Kind
		raw  string
		want Kind
		ok   bool
	}{
		{KindText, "hello", KindText, true},
		{KindNumber, "0.05", KindNumber, true},
		{KindNumber, "five", "", false},
		{KindBool, "true", KindBool, true},
		{KindBool, "yes", "", false},
		{KindURL, "https://shop.example.ch", KindURL, true},
		{KindURL, "shop", "", false},
		{"date", "2026-01-01", "", false},
	}
	for _, tt := range tests {
		v, err := Decode(tt.kind, tt.raw)
		if (err == nil) != tt.ok {
			t.Errorf("Decode(%s, %q) err = %v", tt.kind, tt.raw, err)
			continue
		}
		if !tt.ok {
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Decode(%s, %q) err = %v, want ErrInvalidValue", tt.kind, tt.raw, err)
			}
			continue
		}
		if v.Kind() != tt.want || v.String() != tt.raw {
			t.Errorf("Decode(%s, %q) = %s %q", tt.kind, tt.raw, v.Kind(), v.String())
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyRoundingIncrement, Number{decimal.RequireFromString("0.01")}); err != nil {
		t.Fatalf("set: %v", err)
	}
	inc, err := s.Number(ctx, KeyRoundingIncrement, decimal.Zero)
	if err != nil {
		t.Fatalf("number: %v", err)
	}
	if inc.String() != "0.01" {
		t.Errorf("increment = %s", inc)
	}

	// free keys may change kind
	const note = "shop.note"
	if err := s.Set(ctx, note, Number{decimal.NewFromInt(3)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, note, Text("cent")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := s.Number(ctx, note, decimal.Zero); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("kind mismatch err = %v", err)
	}
	all, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[note].String() != "cent" || all[KeyRoundingIncrement].String() != "0.01" {
		t.Errorf("all = %v", all)
	}
}

func TestStoreRejectsUnusableBillingValues(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	num := func(v string) Value { return Number{decimal.RequireFromString(v)} }

	tests := []struct {
		key  string
		v    Value
		want error
	}{
		{KeyRoundingIncrement, num("0"), ErrInvalidValue},
		{KeyRoundingIncrement, num("-0.05"), ErrInvalidValue},
		{KeyRoundingIncrement, Text("0.05"), ErrKindMismatch},
		{KeyDefaultConditions, Text("150:10;0:30"), ErrInvalidValue},
		{KeyDefaultConditions, Text("2:10"), ErrInvalidValue},
		{KeyDefaultConditions, num("30"), ErrKindMismatch},
		{KeyDefaultReceiver, num("1.5"), ErrInvalidValue},
		{KeyDefaultReceiver, num("-1"), ErrInvalidValue},
		{KeyAttachPDF, Text("yes"), ErrKindMismatch},
		{KeyInvoiceFooter, Bool(true), ErrKindMismatch},
	}
	for _, tt := range tests {
		if err := s.Set(ctx, tt.key, tt.v); !errors.Is(err, tt.want) {
			t.Errorf("Set(%s, %s %q) err = %v, want %v", tt.key, tt.v.Kind(), tt.v, err, tt.want)
		}
	}
	all, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("rejected values were stored: %v", all)
	}

	for key, v := range map[string]Value{
		KeyRoundingIncrement: num("0.01"),
		KeyDefaultConditions: Text("2:10;0:30"),
		KeyDefaultReceiver:   num("0"),
		KeyInvoiceFooter:     Text("Danke"),
	} {
		if err := s.Set(ctx, key, v); err != nil {
			t.Errorf("Set(%s) = %v", key, err)
		}
	}
}

func TestStoreDefaults(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if v, err := s.Text(ctx, KeyDefaultConditions, "0:30"); err != nil || v != "0:30" {
		t.Errorf("text default = %q, %v", v, err)
	}
	if v, err := s.Bool(ctx, KeyAttachPDF, true); err != nil || !v {
		t.Errorf("bool default = %v, %v", v, err)
	}
	if _, err := s.Get(ctx, KeyShopURL); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing err = %v", err)
	}
	if err := s.Set(ctx, KeyAttachPDF, Bool(false)); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Bool(ctx, KeyAttachPDF, true); v {
		t.Error("stored false ignored")
	}
	if err := s.Delete(ctx, KeyAttachPDF); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Bool(ctx, KeyAttachPDF, true); !v {
		t.Error("default not restored after delete")
	}
}
