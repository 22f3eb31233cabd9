package policy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCheckOrder(t *testing.T) {
	open := &models.Order{}
	shipped := &models.Order{Shipped: true}
	paid := &models.Order{Paid: true}

	tests := []struct {
		name   string
		order  *models.Order
		action gate.Action
		want   error
	}{
		{"open lines", open, gate.ActionUpdateLines, nil},
		{"open address", open, gate.ActionUpdateAddress, nil},
		{"shipped lines", shipped, gate.ActionUpdateLines, ErrLinesLocked},
		{"shipped address", shipped, gate.ActionUpdateAddress, nil},
		{"paid lines", paid, gate.ActionUpdateLines, ErrLinesLocked},
		{"paid address", paid, gate.ActionUpdateAddress, ErrDetailsLocked},
		{"paid again", paid, gate.ActionMarkPaid, ErrAlreadyPaid},
		{"shipped again", shipped, gate.ActionMarkShipped, ErrAlreadyShipped},
		{"paid view", paid, gate.ActionView, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckOrder(tt.order, tt.action); !errors.Is(err, tt.want) {
				t.Errorf("CheckOrder = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthGateWithBuiltins(t *testing.T) {
	ag := NewAuthGateWithResolver(StaticResolver(), time.Minute)
	clerk := gate.WithSubject(context.Background(), "clerk")
	viewer := gate.WithSubject(context.Background(), "viewer")

	if err := ag.Authorize(clerk, gate.ActionUpdateLines, gate.ResourceOrder, &models.Order{}); err != nil {
		t.Errorf("clerk open order: %v", err)
	}
	err := ag.Authorize(clerk, gate.ActionUpdateLines, gate.ResourceOrder, &models.Order{Paid: true})
	if !errors.Is(err, ErrLinesLocked) || !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("clerk paid order: %v", err)
	}
	if err := ag.Authorize(viewer, gate.ActionMarkPaid, gate.ResourceOrder, nil); !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("viewer mark paid: %v", err)
	}
	if err := ag.Authorize(context.Background(), gate.ActionView, gate.ResourceOrder, nil); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("anonymous: %v", err)
	}
}

func TestRequireMiddleware(t *testing.T) {
	ag := NewAuthGateWithResolver(StaticResolver(), time.Minute)
	h := ag.Identify("viewer")(ag.Require(gate.ResourcePayment, gate.ActionImport, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		profile string
		want    int
	}{
		{"", http.StatusForbidden},
		{"clerk", http.StatusNoContent},
		{"admin", http.StatusNoContent},
		{"intruder", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/payments/camt", nil)
		if tt.profile != "" {
			req.Header.Set(ProfileHeader, tt.profile)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("profile %q: status %d, want %d", tt.profile, rec.Code, tt.want)
		}
	}
}

func TestWriteErrorLifecycle(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.Join(gate.ErrForbidden, ErrAlreadyPaid))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSeedProfilesAndDBResolver(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Profile{}, &models.Permission{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := SeedProfiles(db); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}
	var n int64
	db.Model(&models.Profile{}).Count(&n)
	if n != int64(len(Builtins)) {
		t.Errorf("profiles = %d, want %d", n, len(Builtins))
	}

	r := NewDBProfileResolver(db)
	p, err := r.Resolve(context.Background(), "clerk")
	if err != nil || p == nil {
		t.Fatalf("resolve clerk: %v %v", p, err)
	}
	if !p.HasPermission("order:mark_shipped") || p.HasPermission("setting:update") {
		t.Errorf("clerk permissions = %v", p.Permissions())
	}
	p, err = r.Resolve(context.Background(), "nobody")
	if err != nil || p != nil {
		t.Errorf("unknown profile = %v, %v", p, err)
	}
}
