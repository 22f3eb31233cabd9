package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/billing"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/internal/services"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// orderResponse adds the computed totals to an order.
type orderResponse struct {
	*models.Order
	Totals billing.Totals `json:"totals"`
}

func (h *OrderHandler) respond(w http.ResponseWriter, r *http.Request, status int, id uint) {
	totals, err := h.orders.Recalculate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, status, orderResponse{Order: o, Totals: totals})
}

// List handles GET /orders?view=unpaid|unshipped|paid.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), models.OrderView(r.URL.Query().Get("view")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})
}

type createOrderRequest struct {
	services.CreateOrderInput
	Date string `json:"date"`
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in := req.CreateOrderInput
	in.Date = date
	o, err := h.orders.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, o.ID)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id)
}

// UpdateDetails handles POST /orders/{id}.
func (h *OrderHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.DetailsInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.orders.UpdateDetails(r.Context(), id, in); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id)
}

// AddItem handles POST /orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.LineInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.orders.AddItem(r.Context(), id, in); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, id)
}

// UpdateItem handles POST /orders/{id}/items/{item_id}.
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathID(r, "item_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.LineUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.orders.UpdateItem(r.Context(), id, itemID, in); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id)
}

// RemoveItem handles POST /orders/{id}/items/{item_id}/delete.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathID(r, "item_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.orders.RemoveItem(r.Context(), id, itemID); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id)
}

// AddFee handles POST /orders/{id}/fees.
func (h *OrderHandler) AddFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.FeeInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.orders.AddFee(r.Context(), id, in); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, id)
}

// RemoveFee handles POST /orders/{id}/fees/{fee_id}/delete.
func (h *OrderHandler) RemoveFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	feeID, err := pathID(r, "fee_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.orders.RemoveFee(r.Context(), id, feeID); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id)
}

type markRequest struct {
	At string `json:"at"`
}

func (h *OrderHandler) mark(w http.ResponseWriter, r *http.Request, fn func(id uint, at time.Time) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req markRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	at, err := parseDate("at", req.At)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(id, at); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id)
}

// MarkPaid handles POST /orders/{id}/paid with an optional {"at": "2026-03-10"}.
func (h *OrderHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, func(id uint, at time.Time) error {
		_, err := h.orders.MarkPaid(r.Context(), id, at)
		return err
	})
}

// MarkShipped handles POST /orders/{id}/shipped.
func (h *OrderHandler) MarkShipped(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, func(id uint, at time.Time) error {
		_, err := h.orders.MarkShipped(r.Context(), id, at)
		return err
	})
}
