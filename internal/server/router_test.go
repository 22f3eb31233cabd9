package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-orders/internal/db"
	"github.com/diewo77/go-orders/internal/policy"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := policy.SeedProfiles(conn); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := New(Options{DB: conn, Log: zerolog.Nop(), DefaultProfile: "admin"})
	return h, conn
}

func do(t *testing.T, h http.Handler, method, path, profile string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if profile != "" {
		req.Header.Set(policy.ProfileHeader, profile)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func expect(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d: %s", rr.Code, status, rr.Body.String())
	}
}

type orderBody struct {
	ID     uint            `json:"id"`
	Total  decimal.Decimal `json:"total"`
	Paid   bool            `json:"paid"`
	Totals struct {
		WithoutVAT decimal.Decimal `json:"without_vat"`
		VAT        decimal.Decimal `json:"vat"`
	} `json:"totals"`
	Items []struct {
		ID uint `json:"id"`
	} `json:"items"`
}

// seedShop creates a QRR receiver and a customer through the API.
func seedShop(t *testing.T, h http.Handler) uint {
	t.Helper()
	rr := do(t, h, "POST", "/receivers", "", map[string]any{
		"name":    "Velo Shop AG",
		"qr_iban": "CH44 3199 9123 0008 8901 2",
		"line1":   "Bahnhofstrasse 1",
		"line2":   "8001 Zürich",
		"uid":     "CHE-116.281.710",
		"email":   "shop@example.ch",
	})
	expect(t, rr, http.StatusCreated)

	rr = do(t, h, "POST", "/customers", "", map[string]any{
		"address": map[string]any{
			"first_name": "Anna", "last_name": "Muster", "line1": "Dorfweg 3",
			"postcode": "3000", "city": "Bern", "country": "CH",
		},
		"language": "de",
	})
	expect(t, rr, http.StatusCreated)
	var c struct {
		ID uint `json:"id"`
	}
	decode(t, rr, &c)
	return c.ID
}

func sampleOrder(customerID uint) map[string]any {
	return map[string]any{
		"date":               "2026-03-01",
		"customer_id":        customerID,
		"payment_conditions": "2:10;0:30",
		"items": []map[string]any{
			{"description": "Helm", "price": "100", "quantity": 1, "vat_rate": "8.1", "discount": "0"},
		},
		"fees": []map[string]any{
			{"description": "Versand", "price": "10", "vat_rate": "0", "discount": "0"},
		},
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	for _, path := range []string{"/health", "/healthz"} {
		rr := do(t, h, "GET", path, "", nil)
		expect(t, rr, http.StatusOK)
		if !strings.Contains(rr.Body.String(), `"ok"`) {
			t.Errorf("%s body = %s", path, rr.Body.String())
		}
		if rr.Header().Get(RequestIDHeader) == "" {
			t.Errorf("%s: missing request id", path)
		}
	}
}

func TestOrderLifecycle(t *testing.T) {
	h, _ := newTestServer(t)
	customer := seedShop(t, h)

	rr := do(t, h, "POST", "/orders", "", sampleOrder(customer))
	expect(t, rr, http.StatusCreated)
	var o orderBody
	decode(t, rr, &o)
	if !o.Total.Equal(decimal.RequireFromString("118.10")) || !o.Totals.VAT.Equal(decimal.RequireFromString("8.10")) {
		t.Fatalf("order = %+v", o)
	}
	base := fmt.Sprintf("/orders/%d", o.ID)

	rr = do(t, h, "POST", base+"/items", "", map[string]any{
		"description": "Licht", "price": "39.90", "quantity": 1, "vat_rate": "8.1", "discount": "0",
	})
	expect(t, rr, http.StatusCreated)
	decode(t, rr, &o)
	if len(o.Items) != 2 {
		t.Fatalf("items = %d", len(o.Items))
	}
	rr = do(t, h, "POST", fmt.Sprintf("%s/items/%d/delete", base, o.Items[1].ID), "", nil)
	expect(t, rr, http.StatusOK)
	decode(t, rr, &o)
	if !o.Total.Equal(decimal.RequireFromString("118.10")) {
		t.Errorf("total after delete = %s", o.Total)
	}

	rr = do(t, h, "GET", base+"/invoice", "", nil)
	expect(t, rr, http.StatusOK)
	var inv struct {
		Reference string   `json:"reference"`
		Payload   []string `json:"payload"`
	}
	decode(t, rr, &inv)
	if inv.Reference != "000000000000000000000100002" && inv.Reference != "00 00000 00000 00000 00001 00002" {
		t.Errorf("reference = %q", inv.Reference)
	}
	if len(inv.Payload) < 32 || inv.Payload[0] != "SPC" || inv.Payload[18] != "118.10" || inv.Payload[27] != "QRR" {
		t.Errorf("payload = %q", inv.Payload)
	}

	rr = do(t, h, "GET", base+"/qr.png", "", nil)
	expect(t, rr, http.StatusOK)
	if rr.Header().Get("Content-Type") != "image/png" || !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Errorf("qr content type %q", rr.Header().Get("Content-Type"))
	}
	expect(t, do(t, h, "GET", base+"/qr.png?size=5", "", nil), http.StatusUnprocessableEntity)

	rr = do(t, h, "GET", base+"/pdf", "", nil)
	expect(t, rr, http.StatusOK)
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Error("pdf body is not a PDF")
	}

	// no SMTP configured
	rr = do(t, h, "POST", base+"/send", "", nil)
	expect(t, rr, http.StatusServiceUnavailable)

	rr = do(t, h, "POST", base+"/paid", "", map[string]any{"at": "2026-03-10"})
	expect(t, rr, http.StatusOK)
	decode(t, rr, &o)
	if !o.Paid {
		t.Error("order not paid")
	}

	rr = do(t, h, "POST", base+"/items", "", map[string]any{
		"description": "Glocke", "price": "9", "quantity": 1, "vat_rate": "8.1", "discount": "0",
	})
	expect(t, rr, http.StatusConflict)
	if !strings.Contains(rr.Body.String(), "order_lines_locked") {
		t.Errorf("locked body = %s", rr.Body.String())
	}
	expect(t, do(t, h, "POST", base+"/paid", "", nil), http.StatusConflict)

	rr = do(t, h, "GET", "/orders?view=paid", "", nil)
	expect(t, rr, http.StatusOK)
	var listed struct {
		Count int `json:"count"`
	}
	decode(t, rr, &listed)
	if listed.Count != 1 {
		t.Errorf("paid orders = %d", listed.Count)
	}
	expect(t, do(t, h, "GET", "/orders?view=archived", "", nil), http.StatusUnprocessableEntity)
}

func TestOrderErrors(t *testing.T) {
	h, _ := newTestServer(t)
	seedShop(t, h)

	expect(t, do(t, h, "GET", "/orders/999", "", nil), http.StatusNotFound)
	expect(t, do(t, h, "GET", "/orders/abc", "", nil), http.StatusUnprocessableEntity)
	expect(t, do(t, h, "POST", "/orders", "", `{"bogus": true}`), http.StatusBadRequest)

	rr := do(t, h, "POST", "/orders", "", map[string]any{
		"payment_conditions": "2:10",
		"items":              []map[string]any{{"description": "Helm", "price": "100", "quantity": 0, "vat_rate": "19", "discount": "0"}},
	})
	expect(t, rr, http.StatusUnprocessableEntity)
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	decode(t, rr, &body)
	if body.Error != "validation_failed" || body.Details["payment_conditions"] == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestPermissions(t *testing.T) {
	h, _ := newTestServer(t)
	customer := seedShop(t, h)

	expect(t, do(t, h, "GET", "/orders", "viewer", nil), http.StatusOK)
	expect(t, do(t, h, "POST", "/orders", "viewer", sampleOrder(customer)), http.StatusForbidden)
	expect(t, do(t, h, "GET", "/orders", "ghost", nil), http.StatusUnauthorized)
	expect(t, do(t, h, "POST", "/orders", "clerk", sampleOrder(customer)), http.StatusCreated)
	expect(t, do(t, h, "GET", "/settings", "clerk", nil), http.StatusForbidden)
}

func TestTools(t *testing.T) {
	h, _ := newTestServer(t)

	rr := do(t, h, "POST", "/tools/reference", "viewer", map[string]any{"order_id": "1"})
	expect(t, rr, http.StatusOK)
	var ref struct {
		Reference string `json:"reference"`
		Digits    string `json:"digits"`
		Valid     bool   `json:"valid"`
	}
	decode(t, rr, &ref)
	if ref.Reference != "00 00000 00000 00000 00001 00002" || ref.Digits != "000000000000000000000100002" {
		t.Errorf("reference = %+v", ref)
	}

	rr = do(t, h, "POST", "/tools/reference", "", map[string]any{"reference": "000000000000000000000100003"})
	expect(t, rr, http.StatusOK)
	decode(t, rr, &ref)
	if ref.Valid {
		t.Error("wrong check digit accepted")
	}
	expect(t, do(t, h, "POST", "/tools/reference", "", map[string]any{"order_id": "12a"}), http.StatusUnprocessableEntity)

	rr = do(t, h, "POST", "/tools/conditions", "", map[string]any{
		"conditions": "2:10;0:30", "date": "2026-03-01", "total": "118.10",
	})
	expect(t, rr, http.StatusOK)
	var conds struct {
		Conditions []struct {
			Days  int             `json:"days"`
			Price decimal.Decimal `json:"price"`
		} `json:"conditions"`
	}
	decode(t, rr, &conds)
	if len(conds.Conditions) != 2 || !conds.Conditions[0].Price.Equal(decimal.RequireFromString("115.75")) {
		t.Errorf("conditions = %+v", conds.Conditions)
	}
	expect(t, do(t, h, "POST", "/tools/conditions", "", map[string]any{
		"conditions": "2:10", "date": "2026-03-01", "total": "1",
	}), http.StatusUnprocessableEntity)

	rr = do(t, h, "POST", "/tools/iban", "", map[string]any{"iban": "CH44 3199 9123 0008 8901 2"})
	expect(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"qr_iban":true`) {
		t.Errorf("iban body = %s", rr.Body.String())
	}
}

func TestPaymentsAndReports(t *testing.T) {
	h, _ := newTestServer(t)
	customer := seedShop(t, h)
	expect(t, do(t, h, "POST", "/orders", "", sampleOrder(customer)), http.StatusCreated)

	statement := `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:camt.053.001.04"><BkToCstmrStmt><Stmt><Id>S1</Id>
<Ntry><Amt Ccy="CHF">118.10</Amt><CdtDbtInd>CRDT</CdtDbtInd><Sts>BOOK</Sts><BookgDt><Dt>2026-03-20</Dt></BookgDt>
<NtryDtls><TxDtls><RmtInf><Strd><CdtrRefInf><Ref>000000000000000000000100002</Ref></CdtrRefInf></Strd></RmtInf></TxDtls></NtryDtls></Ntry>
</Stmt></BkToCstmrStmt></Document>`
	req := httptest.NewRequest("POST", "/payments/camt?name=march.xml", strings.NewReader(statement))
	req.Header.Set("Content-Type", "application/xml")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	expect(t, rr, http.StatusCreated)
	var imp struct {
		Import struct {
			BatchID string `json:"batch_id"`
		} `json:"import"`
		Summary map[string]int `json:"summary"`
	}
	decode(t, rr, &imp)
	if imp.Summary["matched"] != 1 {
		t.Fatalf("summary = %v", imp.Summary)
	}
	expect(t, do(t, h, "GET", "/payments/imports/"+imp.Import.BatchID, "", nil), http.StatusOK)
	expect(t, do(t, h, "GET", "/payments/imports/nope", "", nil), http.StatusNotFound)

	rr = do(t, h, "GET", "/reports/vat?from=2026-03-01&to=2026-03-31", "", nil)
	expect(t, rr, http.StatusOK)
	var report struct {
		VAT decimal.Decimal `json:"vat"`
	}
	decode(t, rr, &report)
	if !report.VAT.Equal(decimal.RequireFromString("8.10")) {
		t.Errorf("report vat = %s", report.VAT)
	}

	rr = do(t, h, "GET", "/reports/vat.xlsx?from=2026-03-01&to=2026-03-31&lang=fr", "", nil)
	expect(t, rr, http.StatusOK)
	if rr.Header().Get("Content-Type") != xlsxType || !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Errorf("xlsx response %q", rr.Header().Get("Content-Type"))
	}
	expect(t, do(t, h, "GET", "/reports/vat?from=2026-03-01", "", nil), http.StatusUnprocessableEntity)
}

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func TestSettingsAndProfiles(t *testing.T) {
	h, _ := newTestServer(t)

	rr := do(t, h, "PUT", "/settings/billing.rounding_increment", "", map[string]any{"kind": "number", "value": "0.01"})
	expect(t, rr, http.StatusOK)
	expect(t, do(t, h, "PUT", "/settings/billing.rounding_increment", "", map[string]any{"kind": "number", "value": "x"}), http.StatusUnprocessableEntity)
	// values the calculator cannot use are refused before they are stored
	expect(t, do(t, h, "PUT", "/settings/billing.rounding_increment", "", map[string]any{"kind": "number", "value": "0"}), http.StatusUnprocessableEntity)
	expect(t, do(t, h, "PUT", "/settings/billing.rounding_increment", "", map[string]any{"kind": "text", "value": "cent"}), http.StatusUnprocessableEntity)
	expect(t, do(t, h, "PUT", "/settings/billing.default_conditions", "", map[string]any{"kind": "text", "value": "150:10;0:30"}), http.StatusUnprocessableEntity)
	expect(t, do(t, h, "PUT", "/settings/billing.default_receiver_id", "", map[string]any{"kind": "number", "value": "1.5"}), http.StatusUnprocessableEntity)
	rr = do(t, h, "GET", "/settings", "", nil)
	expect(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"billing.rounding_increment":{"kind":"number","value":"0.01"}`) {
		t.Errorf("settings = %s", rr.Body.String())
	}
	expect(t, do(t, h, "DELETE", "/settings/billing.rounding_increment", "", nil), http.StatusNoContent)

	rr = do(t, h, "POST", "/admin/profiles", "", map[string]any{
		"name": "accountant", "permissions": []string{"report:export", "payment:*"},
	})
	expect(t, rr, http.StatusCreated)
	var p struct {
		ID uint `json:"id"`
	}
	decode(t, rr, &p)

	expect(t, do(t, h, "GET", "/reports/vat?from=2026-03-01&to=2026-03-31", "accountant", nil), http.StatusOK)
	expect(t, do(t, h, "GET", "/orders", "accountant", nil), http.StatusForbidden)

	rr = do(t, h, "PUT", fmt.Sprintf("/admin/profiles/%d/permissions", p.ID), "", map[string]any{
		"permissions": []string{"order:list"},
	})
	expect(t, rr, http.StatusOK)
	expect(t, do(t, h, "GET", "/orders", "accountant", nil), http.StatusOK)

	expect(t, do(t, h, "POST", "/admin/profiles", "", map[string]any{"name": "x", "permissions": []string{"nonsense"}}), http.StatusUnprocessableEntity)
	expect(t, do(t, h, "POST", "/admin/profiles", "", map[string]any{"name": "accountant"}), http.StatusUnprocessableEntity)
	expect(t, do(t, h, "DELETE", "/admin/profiles/1", "", nil), http.StatusConflict)
	expect(t, do(t, h, "DELETE", fmt.Sprintf("/admin/profiles/%d", p.ID), "", nil), http.StatusNoContent)
	expect(t, do(t, h, "GET", "/orders", "accountant", nil), http.StatusUnauthorized)
}
