package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/diewo77/go-orders/i18n"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/validation"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// VATRow aggregates the paid orders of one VAT rate.
type VATRow struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
	VAT    decimal.Decimal `json:"vat"`
	Orders int             `json:"orders"`
}

type VATReport struct {
	From time.Time       `json:"from"`
	To   time.Time       `json:"to"`
	Rows []VATRow        `json:"rows"`
	VAT  decimal.Decimal `json:"vat"`
}

type ReportService struct {
	orders *OrderService
}

func NewReportService(orders *OrderService) *ReportService {
	return &ReportService{orders: orders}
}

// VAT sums the VAT buckets of orders paid in [from, to).
func (s *ReportService) VAT(ctx context.Context, from, to time.Time) (*VATReport, error) {
	if !from.Before(to) {
		return nil, invalid(validation.Violations{"to": "out_of_range"})
	}
	calc, err := s.orders.Calculator(ctx)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	err = s.orders.db.WithContext(ctx).
		Scopes(models.PaidBetween(from, to)).
		Preload("Items").Preload("Fees").
		Order("paid_at, id").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("load paid orders: %w", err)
	}

	rows := map[string]*VATRow{}
	for _, o := range orders {
		il, fl := Lines(o.Items, o.Fees)
		totals, err := calculatorFor(&o, calc).Totals(il, fl)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", o.ID, err)
		}
		for _, b := range totals.Buckets {
			row, ok := rows[b.Key()]
			if !ok {
				row = &VATRow{Rate: b.Rate}
				rows[b.Key()] = row
			}
			row.Amount = row.Amount.Add(b.Amount)
			row.VAT = row.VAT.Add(b.VAT)
			row.Orders++
		}
	}

	report := &VATReport{From: from, To: to, Rows: make([]VATRow, 0, len(rows))}
	for _, r := range rows {
		report.Rows = append(report.Rows, *r)
		report.VAT = report.VAT.Add(r.VAT)
	}
	sort.Slice(report.Rows, func(i, j int) bool { return report.Rows[i].Rate.LessThan(report.Rows[j].Rate) })
	return report, nil
}

// VATWorkbook renders the report as an XLSX workbook with labels in lang.
func (s *ReportService) VATWorkbook(ctx context.Context, from, to time.Time, lang string) ([]byte, error) {
	report, err := s.VAT(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return WriteVATWorkbook(report, lang)
}

// WriteVATWorkbook lays out a report on a single sheet.
func WriteVATWorkbook(report *VATReport, lang string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := i18n.T(lang, "vat_report")
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	period := report.From.Format("2006-01-02") + " - " + report.To.AddDate(0, 0, -1).Format("2006-01-02")
	cells := [][]any{
		{i18n.T(lang, "vat_report"), period},
		{},
		{i18n.T(lang, "rate"), i18n.T(lang, "total_without_vat"), i18n.T(lang, "vat"), i18n.T(lang, "order")},
	}
	for _, r := range report.Rows {
		cells = append(cells, []any{
			r.Rate.InexactFloat64(), r.Amount.InexactFloat64(), r.VAT.InexactFloat64(), r.Orders,
		})
	}
	cells = append(cells, []any{i18n.T(lang, "total"), "", report.VAT.InexactFloat64()})

	for i, row := range cells {
		for j, v := range row {
			if err := set(j+1, i+1, v); err != nil {
				return nil, err
			}
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheet, 3, 3, style); err != nil {
		return nil, err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(3, len(cells))
	if err := f.SetCellStyle(sheet, "B4", last, amountStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
