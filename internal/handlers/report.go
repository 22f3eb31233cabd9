package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/i18n"
	"github.com/diewo77/go-orders/internal/services"
	"github.com/diewo77/go-orders/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// period reads the inclusive ?from=&to= dates and returns [from, to+1d).
func period(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	v := validation.Violations{}
	validation.Required("from", q.Get("from"), v)
	validation.Required("to", q.Get("to"), v)
	if !v.Empty() {
		return time.Time{}, time.Time{}, &services.ValidationError{Violations: v}
	}
	from, err := time.Parse(dateLayout, q.Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, invalid("from", "invalid_date")
	}
	to, err := time.Parse(dateLayout, q.Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, invalid("to", "invalid_date")
	}
	return from, to.AddDate(0, 0, 1), nil
}

// VAT handles GET /reports/vat?from=2026-01-01&to=2026-03-31.
func (h *ReportHandler) VAT(w http.ResponseWriter, r *http.Request) {
	from, to, err := period(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.reports.VAT(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// VATWorkbook handles GET /reports/vat.xlsx. Labels follow ?lang or
// Accept-Language.
func (h *ReportHandler) VATWorkbook(w http.ResponseWriter, r *http.Request) {
	from, to, err := period(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lang := i18n.Normalize(r.URL.Query().Get("lang"))
	if r.URL.Query().Get("lang") == "" {
		lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
	}
	data, err := h.reports.VATWorkbook(r.Context(), from, to, lang)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("vat-%s-%s.xlsx", from.Format(dateLayout), to.AddDate(0, 0, -1).Format(dateLayout))
	httpx.Attachment(w, xlsxContentType, name, data)
}
