package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-orders/i18n"
	"github.com/diewo77/go-orders/internal/billing"
	"github.com/diewo77/go-orders/internal/conditions"
	"github.com/diewo77/go-orders/internal/mailer"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/internal/money"
	"github.com/diewo77/go-orders/internal/pdf"
	"github.com/diewo77/go-orders/internal/qrbill"
	"github.com/diewo77/go-orders/internal/settings"
	"github.com/shopspring/decimal"
)

var ErrMailerDisabled = errors.New("mailer_disabled")

// InvoiceLine is an item or fee with its rounded amounts.
type InvoiceLine struct {
	Kind        string           `json:"kind"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Discount    decimal.Decimal  `json:"discount"`
	VATRate     decimal.Decimal  `json:"vat_rate"`
	Amounts     billing.Subtotal `json:"amounts"`
}

// Invoice is the computed view of an order: totals, conditions and the
// QR-bill payload.
type Invoice struct {
	OrderID     uint                   `json:"order_id"`
	Number      string                 `json:"number"`
	Date        time.Time              `json:"date"`
	Language    string                 `json:"language"`
	Receiver    models.PaymentReceiver `json:"receiver"`
	Billing     models.Address         `json:"billing"`
	Lines       []InvoiceLine          `json:"lines"`
	Totals      billing.Totals         `json:"totals"`
	Conditions  []conditions.Condition `json:"conditions"`
	Reference   string                 `json:"reference,omitempty"`
	Message     string                 `json:"message"`
	BillingInfo string                 `json:"billing_info"`
	Payload     qrbill.Payload         `json:"payload"`
}

type InvoiceService struct {
	orders   *OrderService
	settings *settings.Store
	mail     mailer.Sender
}

// NewInvoiceService builds the service; a nil sender disables Send.
func NewInvoiceService(orders *OrderService, mail mailer.Sender) *InvoiceService {
	return &InvoiceService{orders: orders, settings: orders.settings, mail: mail}
}

// Build computes the invoice of an order. The payment receiver is validated
// first so an incomplete account never reaches the payload.
func (s *InvoiceService) Build(ctx context.Context, orderID uint) (*Invoice, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	r := o.PaymentReceiver
	if r == nil {
		return nil, fmt.Errorf("order %d: %w", o.ID, ErrReceiverNotFound)
	}
	if err := invalid(r.Validate()); err != nil {
		return nil, fmt.Errorf("payment receiver %d: %w", r.ID, err)
	}

	current, err := s.orders.Calculator(ctx)
	if err != nil {
		return nil, err
	}
	calc := calculatorFor(o, current)
	lines := make([]InvoiceLine, 0, len(o.Items)+len(o.Fees))
	for _, it := range o.Items {
		st, err := calc.LineSubtotal(it)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", it.ID, err)
		}
		lines = append(lines, InvoiceLine{
			Kind: "item", Description: it.Description, Quantity: it.Quantity,
			UnitPrice: it.Price, Discount: it.Discount, VATRate: it.VATRate, Amounts: st,
		})
	}
	for _, f := range o.Fees {
		st, err := calc.LineSubtotal(f)
		if err != nil {
			return nil, fmt.Errorf("fee %d: %w", f.ID, err)
		}
		lines = append(lines, InvoiceLine{
			Kind: "fee", Description: f.Description, Quantity: 1,
			UnitPrice: f.Price, Discount: f.Discount, VATRate: f.VATRate, Amounts: st,
		})
	}
	il, fl := Lines(o.Items, o.Fees)
	totals, err := calc.Totals(il, fl)
	if err != nil {
		return nil, err
	}

	condStr := o.PaymentConditions
	if condStr == "" {
		condStr = DefaultConditions
	}
	conds, err := conditions.ParseRounded(condStr, o.Date, totals.Total, calc.Increment)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", o.ID, err)
	}

	inv := &Invoice{
		OrderID:    o.ID,
		Number:     strconv.FormatUint(uint64(o.ID), 10),
		Date:       o.Date,
		Language:   i18n.Normalize(o.Language),
		Receiver:   *r,
		Billing:    o.Billing,
		Lines:      lines,
		Totals:     totals,
		Conditions: conds,
		Message:    o.Message,
	}
	if inv.Message == "" {
		inv.Message = i18n.T(inv.Language, "order") + " " + inv.Number
	}
	if r.Mode == qrbill.ModeQRR {
		if inv.Reference, err = qrbill.ReferenceNumber(uint64(o.ID)); err != nil {
			return nil, err
		}
	}
	inv.BillingInfo = qrbill.BillingInformation(qrbill.BillingInfo{
		OrderID:     uint64(o.ID),
		InvoiceDate: o.Date,
		UID:         r.UID,
		Buckets:     totals.Buckets,
		Conditions:  condStr,
	})
	inv.Payload, err = qrbill.Build(qrbill.PayloadInput{
		Amount:   totals.Total,
		Creditor: r.Creditor(),
		Debtor: qrbill.Debtor{
			Company:   o.Billing.Company,
			FirstName: o.Billing.FirstName,
			LastName:  o.Billing.LastName,
			Line1:     o.Billing.Line1,
			Postcode:  o.Billing.Postcode,
			City:      o.Billing.City,
			Country:   o.Billing.Country,
		},
		Reference:   inv.Reference,
		Message:     inv.Message,
		BillingInfo: inv.BillingInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("order %d payload: %w", o.ID, err)
	}
	return inv, nil
}

// QRCode renders the QR-bill code of an order as PNG.
func (s *InvoiceService) QRCode(ctx context.Context, orderID uint, size int) ([]byte, error) {
	inv, err := s.Build(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return qrbill.EncodePNG(inv.Payload.String(), size)
}

// PDF renders the invoice document of an order.
func (s *InvoiceService) PDF(ctx context.Context, orderID uint) ([]byte, *Invoice, error) {
	inv, err := s.Build(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	png, err := qrbill.EncodePNG(inv.Payload.String(), qrbill.DefaultImageSize)
	if err != nil {
		return nil, nil, err
	}
	footer, err := s.settings.Text(ctx, settings.KeyInvoiceFooter, "")
	if err != nil {
		return nil, nil, err
	}

	doc := pdf.Invoice{
		Language:   inv.Language,
		Number:     inv.Number,
		Date:       inv.Date,
		Creditor:   pdf.Party{Name: inv.Receiver.Name, Lines: nonEmpty(inv.Receiver.Line1, inv.Receiver.Line2)},
		UID:        inv.Receiver.UID,
		Debtor:     pdf.Party{Name: inv.Billing.Name(), Lines: nonEmpty(inv.Billing.Line1, inv.Billing.Line2, strings.TrimSpace(inv.Billing.Postcode+" "+inv.Billing.City))},
		Totals:     inv.Totals,
		Conditions: inv.Conditions,
		Account:    groupIBAN(inv.Payload[3]),
		Reference:  inv.Reference,
		Message:    inv.Message,
		QRCode:     png,
		Footer:     footer,
	}
	for _, l := range inv.Lines {
		doc.Lines = append(doc.Lines, pdf.Line{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			VATRate:     l.VATRate,
			Amount:      l.Amounts.Subtotal,
		})
	}
	out, err := pdf.Render(doc)
	if err != nil {
		return nil, nil, err
	}
	return out, inv, nil
}

// Send mails the invoice to the billing address of the order.
func (s *InvoiceService) Send(ctx context.Context, orderID uint) error {
	if s.mail == nil {
		return ErrMailerDisabled
	}
	attach, err := s.settings.Bool(ctx, settings.KeyAttachPDF, true)
	if err != nil {
		return err
	}
	var inv *Invoice
	var doc []byte
	if attach {
		doc, inv, err = s.PDF(ctx, orderID)
	} else {
		inv, err = s.Build(ctx, orderID)
	}
	if err != nil {
		return err
	}
	if inv.Billing.Email == "" {
		return fmt.Errorf("order %d: %w", orderID, ErrNoRecipient)
	}

	msg := mailer.Message{
		To:      []string{inv.Billing.Email},
		ReplyTo: inv.Receiver.Email,
		Subject: i18n.Tf(inv.Language, "mail_subject", inv.Number),
		Body:    i18n.Tf(inv.Language, "mail_body", inv.Number, money.Format(inv.Totals.Total), inv.Receiver.Name),
	}
	if doc != nil {
		msg.Attachments = []mailer.Attachment{{
			Filename:    "invoice-" + inv.Number + ".pdf",
			ContentType: "application/pdf",
			Data:        doc,
		}}
	}
	return s.mail.Send(ctx, msg)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// groupIBAN prints an IBAN in blocks of four.
func groupIBAN(iban string) string {
	var b strings.Builder
	for i, r := range iban {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
