// Package qrbill assembles the Swiss QR-bill: reference numbers, the SPC
// payload, the structured billing information and the QR code image.
package qrbill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-orders/internal/money"
	"github.com/shopspring/decimal"
)

// Mode is the reference type of a payment receiver.
type Mode string

const (
	ModeQRR Mode = "QRR"
	ModeNON Mode = "NON"
)

const (
	header      = "SPC"
	version     = "0200"
	coding      = "1"
	addressType = "K"
	trailer     = "EPD"

	// PayloadLines is the fixed number of lines this integration emits.
	PayloadLines = 32
)

var (
	// ErrMissingIBAN is returned when the creditor lacks the account its mode needs.
	ErrMissingIBAN = errors.New("payment receiver has no iban for its mode")
	// ErrMissingReference is returned for a QRR bill without reference.
	ErrMissingReference = errors.New("qr reference required for mode QRR")
	// ErrInvalidReference is returned for a QRR reference that is not 27 digits
	// with a matching check digit.
	ErrInvalidReference = errors.New("invalid qr reference")
	// ErrUnknownMode is returned for a receiver mode other than QRR or NON.
	ErrUnknownMode = errors.New("unknown payment reference mode")
)

// Creditor is the payment receiver printed on the bill.
type Creditor struct {
	Mode    Mode
	QRIBAN  string
	IBAN    string
	Name    string
	Line1   string
	Line2   string
	Country string
}

// Account returns the IBAN used for the creditor's mode.
func (c Creditor) Account() (string, error) {
	var iban string
	switch c.Mode {
	case ModeQRR:
		iban = c.QRIBAN
	case ModeNON:
		iban = c.IBAN
	default:
		return "", fmt.Errorf("%q: %w", c.Mode, ErrUnknownMode)
	}
	iban = StripSpaces(iban)
	if iban == "" {
		return "", fmt.Errorf("mode %s: %w", c.Mode, ErrMissingIBAN)
	}
	return iban, nil
}

// Debtor is the billing address snapshot of the order.
type Debtor struct {
	Company   string
	FirstName string
	LastName  string
	Line1     string
	Postcode  string
	City      string
	Country   string
}

// Name is the company name if set, otherwise "first last".
func (d Debtor) Name() string {
	if c := strings.TrimSpace(d.Company); c != "" {
		return c
	}
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// PayloadInput is everything printed on the bill besides the fixed fields.
type PayloadInput struct {
	Amount    decimal.Decimal
	Creditor  Creditor
	Debtor    Debtor
	Reference string
	Message   string
	// BillingInfo is usually the output of BillingInformation.
	BillingInfo string
}

// Payload is the SPC block, one element per line.
type Payload []string

// String joins the lines with "\n", the form fed to the QR encoder.
func (p Payload) String() string { return strings.Join(p, "\n") }

// Build assembles the 32 line SPC payload. The creditor account and, for QRR,
// the reference are checked before anything is assembled.
func Build(in PayloadInput) (Payload, error) {
	iban, err := in.Creditor.Account()
	if err != nil {
		return nil, err
	}
	ref := ""
	if in.Creditor.Mode == ModeQRR {
		ref = StripSpaces(in.Reference)
		if ref == "" {
			return nil, ErrMissingReference
		}
		if !ValidReference(ref) {
			return nil, fmt.Errorf("%s: %w", ref, ErrInvalidReference)
		}
	}

	p := make(Payload, 0, PayloadLines)
	p = append(p, header, version, coding)
	p = append(p,
		iban,
		addressType,
		oneLine(in.Creditor.Name),
		oneLine(in.Creditor.Line1),
		oneLine(in.Creditor.Line2),
		"",
		"",
		in.Creditor.Country,
	)
	// ultimate creditor, never used
	p = append(p, "", "", "", "", "", "", "")
	p = append(p, money.Format(in.Amount), money.Currency)
	p = append(p,
		addressType,
		oneLine(in.Debtor.Name()),
		oneLine(in.Debtor.Line1),
		oneLine(strings.TrimSpace(in.Debtor.Postcode+" "+in.Debtor.City)),
		"",
		"",
		in.Debtor.Country,
	)
	p = append(p, string(in.Creditor.Mode), ref)
	p = append(p, oneLine(in.Message), trailer, oneLine(in.BillingInfo))
	return p, nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine keeps free text from shifting the fixed line positions.
func oneLine(s string) string { return strings.TrimSpace(lineBreaks.Replace(s)) }
