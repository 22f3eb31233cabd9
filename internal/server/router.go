// Package server assembles the HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/handlers"
	"github.com/diewo77/go-orders/internal/mailer"
	"github.com/diewo77/go-orders/internal/policy"
	"github.com/diewo77/go-orders/internal/services"
	"github.com/diewo77/go-orders/internal/settings"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Options configures New.
type Options struct {
	DB *gorm.DB
	// Mailer may be nil; POST /orders/{id}/send then answers 503.
	Mailer mailer.Sender
	Log    zerolog.Logger
	// DefaultProfile acts for requests without an X-Profile header.
	DefaultProfile string
	ProfileTTL     time.Duration
	// Resolver overrides the database profile source.
	Resolver gate.ProfileResolver[string]
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(opts Options) http.Handler {
	db := opts.DB
	if opts.ProfileTTL == 0 {
		opts.ProfileTTL = time.Minute
	}
	var ag *policy.AuthGate
	if opts.Resolver != nil {
		ag = policy.NewAuthGateWithResolver(opts.Resolver, opts.ProfileTTL)
	} else {
		ag = policy.NewAuthGate(db, opts.ProfileTTL)
	}

	orders := services.NewOrderService(db)
	oh := handlers.NewOrderHandler(orders)
	ih := handlers.NewInvoiceHandler(services.NewInvoiceService(orders, opts.Mailer))
	ph := handlers.NewPaymentHandler(services.NewPaymentImportService(db, opts.Log.With().Str("component", "payments").Logger()))
	rh := handlers.NewReportHandler(services.NewReportService(orders))
	ch := handlers.NewCatalogHandler(services.NewCatalogService(db))
	sh := handlers.NewSettingsHandler(settings.NewStore(db))
	th := handlers.NewToolsHandler()
	aph := handlers.NewAdminProfileHandler(db, ag.CacheResolver)

	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	route := func(pattern string, res gate.Resource, act gate.Action, h http.HandlerFunc) {
		mux.HandleFunc(pattern, ag.Require(res, act, h))
	}
	order := gate.ResourceOrder

	// Orders
	route("GET /orders", order, gate.ActionList, oh.List)
	route("POST /orders", order, gate.ActionCreate, oh.Create)
	route("GET /orders/{id}", order, gate.ActionView, oh.Get)
	route("POST /orders/{id}", order, gate.ActionUpdateAddress, oh.UpdateDetails)
	route("POST /orders/{id}/items", order, gate.ActionUpdateLines, oh.AddItem)
	route("POST /orders/{id}/items/{item_id}", order, gate.ActionUpdateLines, oh.UpdateItem)
	route("POST /orders/{id}/items/{item_id}/delete", order, gate.ActionUpdateLines, oh.RemoveItem)
	route("POST /orders/{id}/fees", order, gate.ActionUpdateLines, oh.AddFee)
	route("POST /orders/{id}/fees/{fee_id}/delete", order, gate.ActionUpdateLines, oh.RemoveFee)
	route("POST /orders/{id}/paid", order, gate.ActionMarkPaid, oh.MarkPaid)
	route("POST /orders/{id}/shipped", order, gate.ActionMarkShipped, oh.MarkShipped)

	// Invoices
	route("GET /orders/{id}/invoice", order, gate.ActionView, ih.Show)
	route("GET /orders/{id}/qr.png", order, gate.ActionView, ih.QRCode)
	route("GET /orders/{id}/pdf", order, gate.ActionView, ih.PDF)
	route("POST /orders/{id}/send", order, gate.ActionSend, ih.Send)

	// Payments and reports
	route("POST /payments/camt", gate.ResourcePayment, gate.ActionImport, ph.Import)
	route("GET /payments/imports/{batch_id}", gate.ResourcePayment, gate.ActionView, ph.Get)
	route("GET /reports/vat", gate.ResourceReport, gate.ActionExport, rh.VAT)
	route("GET /reports/vat.xlsx", gate.ResourceReport, gate.ActionExport, rh.VATWorkbook)

	// Catalog
	route("GET /customers", gate.ResourceCatalog, gate.ActionList, ch.ListCustomers)
	route("POST /customers", gate.ResourceCatalog, gate.ActionCreate, ch.CreateCustomer)
	route("POST /suppliers", gate.ResourceCatalog, gate.ActionCreate, ch.CreateSupplier)
	route("GET /products", gate.ResourceCatalog, gate.ActionList, ch.ListProducts)
	route("POST /products", gate.ResourceCatalog, gate.ActionCreate, ch.CreateProduct)
	route("GET /fees", gate.ResourceCatalog, gate.ActionList, ch.ListFees)
	route("POST /fees", gate.ResourceCatalog, gate.ActionCreate, ch.CreateFee)
	route("GET /receivers", gate.ResourceReceiver, gate.ActionList, ch.ListReceivers)
	route("POST /receivers", gate.ResourceReceiver, gate.ActionCreate, ch.CreateReceiver)

	// Settings and profiles
	route("GET /settings", gate.ResourceSetting, gate.ActionList, sh.List)
	route("PUT /settings/{key}", gate.ResourceSetting, gate.ActionUpdate, sh.Put)
	route("DELETE /settings/{key}", gate.ResourceSetting, gate.ActionDelete, sh.Delete)
	route("GET /admin/profiles", gate.ResourceProfile, gate.ActionList, aph.List)
	route("POST /admin/profiles", gate.ResourceProfile, gate.ActionCreate, aph.Create)
	route("PUT /admin/profiles/{id}/permissions", gate.ResourceProfile, gate.ActionUpdate, aph.SavePermissions)
	route("DELETE /admin/profiles/{id}", gate.ResourceProfile, gate.ActionDelete, aph.Delete)

	// Tools
	route("POST /tools/reference", gate.ResourceTool, gate.ActionUse, th.Reference)
	route("POST /tools/conditions", gate.ResourceTool, gate.ActionUse, th.Conditions)
	route("POST /tools/iban", gate.ResourceTool, gate.ActionUse, th.IBAN)

	return withRequestLog(opts.Log, withRecover(ag.Identify(opts.DefaultProfile)(mux)))
}
