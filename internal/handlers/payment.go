package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/services"
)

// maxStatementBytes bounds an uploaded camt.053 file.
const maxStatementBytes = 10 << 20

type PaymentHandler struct {
	imports *services.PaymentImportService
}

func NewPaymentHandler(imports *services.PaymentImportService) *PaymentHandler {
	return &PaymentHandler{imports: imports}
}

// Import handles POST /payments/camt. The statement is either the raw body
// or the "file" field of a multipart form.
func (h *PaymentHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxStatementBytes)

	var (
		body io.Reader = r.Body
		name           = r.URL.Query().Get("name")
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, invalid("file", "required"))
			return
		}
		defer file.Close()
		body, name = file, header.Filename
	}

	batch, err := h.imports.Import(r.Context(), body, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	counts := map[string]int{}
	for _, e := range batch.Entries {
		counts[string(e.Result)]++
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"import": batch, "summary": counts})
}

// Get handles GET /payments/imports/{batch_id}.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	batch, err := h.imports.Get(r.Context(), r.PathValue("batch_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}
