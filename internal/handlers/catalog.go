package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/internal/services"
)

// CatalogHandler serves customers, suppliers, products, fee templates and
// payment receivers.
type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// create decodes a JSON body into v, stores it and answers 201 with v.
func create[T any](w http.ResponseWriter, r *http.Request, v *T, store func(*T) error) {
	if err := httpx.DecodeJSON(r, v); err != nil {
		writeError(w, r, err)
		return
	}
	if err := store(v); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func list[T any](w http.ResponseWriter, r *http.Request, key string, items []T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{key: items, "count": len(items)})
}

func (h *CatalogHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Customers(r.Context())
	list(w, r, "customers", items, err)
}

func (h *CatalogHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	create(w, r, &models.Customer{}, func(c *models.Customer) error {
		return h.catalog.CreateCustomer(r.Context(), c)
	})
}

func (h *CatalogHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	create(w, r, &models.Supplier{}, func(s *models.Supplier) error {
		return h.catalog.CreateSupplier(r.Context(), s)
	})
}

// ListProducts handles GET /products; ?all=1 includes inactive products.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	items, err := h.catalog.Products(r.Context(), all)
	list(w, r, "products", items, err)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	create(w, r, &models.Product{Active: true}, func(p *models.Product) error {
		return h.catalog.CreateProduct(r.Context(), p)
	})
}

func (h *CatalogHandler) ListFees(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Fees(r.Context())
	list(w, r, "fees", items, err)
}

func (h *CatalogHandler) CreateFee(w http.ResponseWriter, r *http.Request) {
	create(w, r, &models.Fee{}, func(f *models.Fee) error {
		return h.catalog.CreateFee(r.Context(), f)
	})
}

func (h *CatalogHandler) ListReceivers(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Receivers(r.Context())
	list(w, r, "receivers", items, err)
}

func (h *CatalogHandler) CreateReceiver(w http.ResponseWriter, r *http.Request) {
	create(w, r, &models.PaymentReceiver{}, func(p *models.PaymentReceiver) error {
		return h.catalog.CreateReceiver(r.Context(), p)
	})
}
