// Package pdf renders invoices with their QR-bill payment part.
package pdf

import (
	"fmt"
	"strconv"
	"time"

	"github.com/diewo77/go-orders/i18n"
	"github.com/diewo77/go-orders/internal/billing"
	"github.com/diewo77/go-orders/internal/conditions"
	"github.com/diewo77/go-orders/internal/money"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

const dateLayout = "02.01.2006"

// Party is a name followed by address lines.
type Party struct {
	Name  string
	Lines []string
}

type Line struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	VATRate     decimal.Decimal
	Amount      decimal.Decimal
}

// Invoice is everything printed on the document. Labels are translated into
// Language.
type Invoice struct {
	Language   string
	Number     string
	Date       time.Time
	Creditor   Party
	UID        string
	Debtor     Party
	Lines      []Line
	Totals     billing.Totals
	Conditions []conditions.Condition
	Account    string
	Reference  string
	Message    string
	// QRCode is the PNG of the SPC payload; the payment part is omitted when empty.
	QRCode []byte
	Footer string
}

// Render produces the PDF bytes of inv.
func Render(inv Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	addHeader(m, inv)
	addLines(m, inv)
	addTotals(m, inv)
	addConditions(m, inv)
	if len(inv.QRCode) > 0 {
		addPaymentPart(m, inv)
	}
	if inv.Footer != "" {
		m.AddRow(10, text.NewCol(12, inv.Footer, props.Text{Size: 8, Top: 4, Align: align.Center}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func partyColumn(size int, p Party, style props.Text) core.Col {
	c := col.New(size)
	c.Add(text.New(p.Name, props.Text{Size: style.Size, Style: fontstyle.Bold, Align: style.Align}))
	for i, l := range p.Lines {
		c.Add(text.New(l, props.Text{Size: style.Size, Top: float64(i+1) * 4.5, Align: style.Align}))
	}
	return c
}

func addHeader(m core.Maroto, inv Invoice) {
	lang := inv.Language
	creditor := inv.Creditor
	if inv.UID != "" {
		creditor.Lines = append(append([]string{}, creditor.Lines...), inv.UID)
	}
	m.AddRow(30,
		partyColumn(6, creditor, props.Text{Size: 9, Align: align.Left}),
		col.New(6).Add(
			text.New(i18n.T(lang, "invoice"), props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Right}),
			text.New(fmt.Sprintf("%s %s", i18n.T(lang, "order"), inv.Number), props.Text{Size: 10, Top: 9, Align: align.Right}),
			text.New(fmt.Sprintf("%s: %s", i18n.T(lang, "date"), inv.Date.Format(dateLayout)), props.Text{Size: 10, Top: 14, Align: align.Right}),
		),
	)
	m.AddRow(30, col.New(7), partyColumn(5, inv.Debtor, props.Text{Size: 10, Align: align.Left}))
	m.AddRow(5, line.NewCol(12))
}

func addLines(m core.Maroto, inv Invoice) {
	lang := inv.Language
	head := props.Text{Size: 9, Style: fontstyle.Bold}
	right := head
	right.Align = align.Right
	m.AddRow(7,
		text.NewCol(5, i18n.T(lang, "description"), head),
		text.NewCol(1, i18n.T(lang, "quantity"), right),
		text.NewCol(2, i18n.T(lang, "unit_price"), right),
		text.NewCol(1, i18n.T(lang, "discount"), right),
		text.NewCol(1, i18n.T(lang, "vat"), right),
		text.NewCol(2, i18n.T(lang, "amount"), right),
	)
	body := props.Text{Size: 9}
	num := props.Text{Size: 9, Align: align.Right}
	for _, l := range inv.Lines {
		discount := ""
		if !l.Discount.IsZero() {
			discount = l.Discount.String() + "%"
		}
		m.AddRow(6,
			text.NewCol(5, l.Description, body),
			text.NewCol(1, strconv.Itoa(l.Quantity), num),
			text.NewCol(2, money.Format(l.UnitPrice), num),
			text.NewCol(1, discount, num),
			text.NewCol(1, l.VATRate.String()+"%", num),
			text.NewCol(2, money.Format(l.Amount), num),
		)
	}
	m.AddRow(3, line.NewCol(12))
}

func addTotals(m core.Maroto, inv Invoice) {
	lang := inv.Language
	label := props.Text{Size: 9, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}
	m.AddRow(6,
		col.New(6),
		text.NewCol(4, i18n.T(lang, "total_without_vat"), label),
		text.NewCol(2, money.Format(inv.Totals.WithoutVAT), value),
	)
	for _, b := range inv.Totals.Buckets {
		m.AddRow(6,
			col.New(6),
			text.NewCol(4, fmt.Sprintf("%s %s%% (%s)", i18n.T(lang, "vat"), b.Key(), money.Format(b.Amount)), label),
			text.NewCol(2, money.Format(b.VAT), value),
		)
	}
	bold := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}
	m.AddRow(2, col.New(8), line.NewCol(4))
	m.AddRow(8,
		col.New(6),
		text.NewCol(4, fmt.Sprintf("%s %s", i18n.T(lang, "total"), money.Currency), bold),
		text.NewCol(2, money.Format(inv.Totals.Total), bold),
	)
}

func addConditions(m core.Maroto, inv Invoice) {
	if len(inv.Conditions) == 0 {
		return
	}
	lang := inv.Language
	m.AddRow(8, text.NewCol(12, i18n.T(lang, "payment_conditions"), props.Text{Size: 9, Style: fontstyle.Bold, Top: 3}))
	for _, c := range inv.Conditions {
		m.AddRow(5, text.NewCol(12,
			i18n.Tf(lang, "payable_until", c.Date.Format(dateLayout), money.Format(c.Price)),
			props.Text{Size: 9}))
	}
}

func addPaymentPart(m core.Maroto, inv Invoice) {
	lang := inv.Language
	m.AddRow(10)
	m.AddRow(3, line.NewCol(12))
	m.AddRow(8,
		text.NewCol(4, i18n.T(lang, "receipt"), props.Text{Size: 11, Style: fontstyle.Bold}),
		text.NewCol(8, i18n.T(lang, "payment_part"), props.Text{Size: 11, Style: fontstyle.Bold}),
	)

	info := col.New(5)
	top := 0.0
	addField := func(label, value string) {
		if value == "" {
			return
		}
		info.Add(text.New(label, props.Text{Size: 8, Style: fontstyle.Bold, Top: top}))
		info.Add(text.New(value, props.Text{Size: 9, Top: top + 3.5}))
		top += 9
	}
	addField(i18n.T(lang, "account_payable_to"), inv.Account+" "+inv.Creditor.Name)
	addField(i18n.T(lang, "reference"), inv.Reference)
	addField(i18n.T(lang, "additional_info"), inv.Message)
	addField(i18n.T(lang, "payable_by"), inv.Debtor.Name)
	addField(i18n.T(lang, "currency"), money.Currency)
	addField(i18n.T(lang, "amount"), money.Format(inv.Totals.Total))

	m.AddRow(60,
		partyColumn(3, Party{
			Name:  inv.Account,
			Lines: []string{inv.Creditor.Name, inv.Reference, money.Currency + " " + money.Format(inv.Totals.Total)},
		}, props.Text{Size: 8}),
		col.New(1),
		image.NewFromBytesCol(3, inv.QRCode, extension.Png, props.Rect{Center: true, Percent: 95}),
		info,
	)
}
