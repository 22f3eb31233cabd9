package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/services"
)

const (
	defaultQRSize = 300
	maxQRSize     = 2000
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
}

func NewInvoiceHandler(invoices *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Show handles GET /orders/{id}/invoice: totals, VAT breakdown, conditions
// and the QR-bill payload.
func (h *InvoiceHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.invoices.Build(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// QRCode handles GET /orders/{id}/qr.png?size=300.
func (h *InvoiceHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size < 100 || size > maxQRSize {
			writeError(w, r, invalid("size", "out_of_range"))
			return
		}
	}
	png, err := h.invoices.QRCode(r.Context(), id, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// PDF handles GET /orders/{id}/pdf.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, _, err := h.invoices.PDF(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Attachment(w, "application/pdf", fmt.Sprintf("invoice-%d.pdf", id), doc)
}

// Send handles POST /orders/{id}/send.
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.invoices.Send(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"status": "sent", "order_id": id})
}
