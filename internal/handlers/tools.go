package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/conditions"
	"github.com/diewo77/go-orders/internal/qrbill"
	"github.com/shopspring/decimal"
)

// ToolsHandler exposes the pure calculations without touching the database.
type ToolsHandler struct{}

func NewToolsHandler() *ToolsHandler { return &ToolsHandler{} }

type referenceRequest struct {
	// OrderID is a digit string so ids beyond uint64 can be checked too.
	OrderID   string `json:"order_id"`
	Reference string `json:"reference"`
}

type referenceResponse struct {
	Reference string `json:"reference"`
	Digits    string `json:"digits"`
	Valid     bool   `json:"valid"`
}

// Reference handles POST /tools/reference. With order_id it generates the QR
// reference, with reference it verifies the check digit.
func (h *ToolsHandler) Reference(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Reference != "" {
		digits := qrbill.StripSpaces(req.Reference)
		httpx.JSON(w, http.StatusOK, referenceResponse{
			Reference: qrbill.FormatReference(digits),
			Digits:    digits,
			Valid:     qrbill.ValidReference(digits),
		})
		return
	}
	if req.OrderID == "" {
		writeError(w, r, invalid("order_id", "required"))
		return
	}
	ref, err := qrbill.ReferenceFromDigits(req.OrderID)
	switch {
	case errors.Is(err, qrbill.ErrOrderIDTooLarge):
		writeError(w, r, invalid("order_id", "out_of_range"))
		return
	case errors.Is(err, qrbill.ErrNotNumeric):
		writeError(w, r, invalid("order_id", "invalid_format"))
		return
	case err != nil:
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, referenceResponse{Reference: ref, Digits: qrbill.StripSpaces(ref), Valid: true})
}

type conditionsRequest struct {
	Conditions string          `json:"conditions"`
	Date       string          `json:"date"`
	Total      decimal.Decimal `json:"total"`
}

// Conditions handles POST /tools/conditions.
func (h *ToolsHandler) Conditions(w http.ResponseWriter, r *http.Request) {
	var req conditionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if date.IsZero() {
		writeError(w, r, invalid("date", "required"))
		return
	}
	list, err := conditions.Parse(req.Conditions, date, req.Total)
	if errors.Is(err, conditions.ErrMalformed) {
		writeError(w, r, invalid("conditions", "invalid_format"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"conditions": list, "due": conditions.Due(list)})
}

type ibanRequest struct {
	IBAN string `json:"iban"`
}

// IBAN handles POST /tools/iban.
func (h *ToolsHandler) IBAN(w http.ResponseWriter, r *http.Request) {
	var req ibanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	valid := qrbill.ValidIBAN(req.IBAN)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"iban":    qrbill.StripSpaces(req.IBAN),
		"valid":   valid,
		"qr_iban": valid && qrbill.IsQRIBAN(req.IBAN),
	})
}
