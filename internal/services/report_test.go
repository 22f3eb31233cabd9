package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-orders/internal/qrbill"
	"github.com/xuri/excelize/v2"
)

func TestReportServiceVAT(t *testing.T) {
	db := setupTestDB(t, t.Name())
	seedReceiver(t, db, qrbill.ModeQRR)
	orders := NewOrderService(db)
	ctx := context.Background()

	march := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		o := createSample(t, orders, db)
		if _, err := orders.MarkPaid(ctx, o.ID, march); err != nil {
			t.Fatal(err)
		}
	}
	late := createSample(t, orders, db)
	if _, err := orders.MarkPaid(ctx, late.ID, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	createSample(t, orders, db) // unpaid

	svc := NewReportService(orders)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	report, err := svc.VAT(ctx, from, to)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("rows = %+v", report.Rows)
	}
	zero, normal := report.Rows[0], report.Rows[1]
	if !zero.Rate.IsZero() || !zero.Amount.Equal(d("20")) || !zero.VAT.IsZero() || zero.Orders != 2 {
		t.Errorf("0 %% row = %+v", zero)
	}
	if !normal.Rate.Equal(d("8.1")) || !normal.Amount.Equal(d("200")) || !normal.VAT.Equal(d("16.20")) {
		t.Errorf("8.1 %% row = %+v", normal)
	}
	if !report.VAT.Equal(d("16.20")) {
		t.Errorf("report VAT = %s", report.VAT)
	}

	if _, err := svc.VAT(ctx, to, from); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("reversed range err = %v", err)
	}

	data, err := svc.VATWorkbook(ctx, from, to, "fr")
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	sheet := "Décompte TVA"
	if got, _ := f.GetCellValue(sheet, "B1"); got != "2026-03-01 - 2026-03-31" {
		t.Errorf("period = %q", got)
	}
	if got, _ := f.GetCellValue(sheet, "A3"); got != "Taux" {
		t.Errorf("header = %q", got)
	}
	if got, _ := f.GetCellValue(sheet, "D5"); got != "2" {
		t.Errorf("orders at 8.1 %% = %q", got)
	}
}
