package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/diewo77/go-orders/internal/qrbill"
	"github.com/diewo77/go-orders/validation"
)

// PaymentReceiver is the creditor printed on invoices and in the QR-bill.
type PaymentReceiver struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Reference mode: QRR needs a QR-IBAN, NON a plain IBAN.
	Mode   qrbill.Mode `gorm:"size:3;not null;default:'QRR'" json:"mode"`
	QRIBAN string      `gorm:"column:qr_iban;size:34" json:"qr_iban,omitempty"`
	IBAN   string      `gorm:"size:34" json:"iban,omitempty"`

	// Invoice address
	Name    string `gorm:"size:70;not null" json:"name"`
	Line1   string `gorm:"size:70" json:"line1,omitempty"`
	Line2   string `gorm:"size:70" json:"line2,omitempty"`
	Country string `gorm:"size:2;not null;default:'CH'" json:"country"`

	// UID is the optional Swiss business id (CHE-123.456.789).
	UID     string `gorm:"size:30" json:"uid,omitempty"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Website string `gorm:"size:255" json:"website,omitempty"`
	LogoURL string `gorm:"size:500" json:"logo_url,omitempty"`
}

var countryCode = regexp.MustCompile(`^[A-Z]{2}$`)

// Validate checks that the account needed by Mode is present and well formed.
func (r *PaymentReceiver) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", r.Name, v)
	validation.OneOf("mode", string(r.Mode), []string{string(qrbill.ModeQRR), string(qrbill.ModeNON)}, v)
	validation.Match("country", r.Country, countryCode, v)

	switch r.Mode {
	case qrbill.ModeQRR:
		validation.Required("qr_iban", r.QRIBAN, v)
		validation.Check("qr_iban", r.QRIBAN == "" || qrbill.IsQRIBAN(r.QRIBAN), "invalid_qr_iban", v)
	case qrbill.ModeNON:
		validation.Required("iban", r.IBAN, v)
		validation.Check("iban", r.IBAN == "" || (qrbill.ValidIBAN(r.IBAN) && !qrbill.IsQRIBAN(r.IBAN)), "invalid_iban", v)
	}
	if strings.TrimSpace(r.UID) != "" {
		validation.Check("uid", qrbill.ValidUID(r.UID), "invalid_uid", v)
	}
	return v
}

// Creditor converts the receiver for the QR-bill payload.
func (r *PaymentReceiver) Creditor() qrbill.Creditor {
	return qrbill.Creditor{
		Mode:    r.Mode,
		QRIBAN:  r.QRIBAN,
		IBAN:    r.IBAN,
		Name:    r.Name,
		Line1:   r.Line1,
		Line2:   r.Line2,
		Country: r.Country,
	}
}
