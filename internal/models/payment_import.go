package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportResult is the outcome of matching one bank entry.
type ImportResult string

const (
	ImportMatched     ImportResult = "matched"
	ImportUnderpaid   ImportResult = "underpaid"
	ImportAlreadyPaid ImportResult = "already_paid"
	ImportUnmatched   ImportResult = "unmatched"
	ImportSkipped     ImportResult = "skipped"
)

// PaymentImport is one uploaded camt.053 statement.
type PaymentImport struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// BatchID is a uuid handed back to the uploader.
	BatchID  string               `gorm:"size:36;uniqueIndex;not null" json:"batch_id"`
	FileName string               `gorm:"size:255" json:"file_name,omitempty"`
	Entries  []PaymentImportEntry `gorm:"foreignKey:PaymentImportID;constraint:OnDelete:CASCADE" json:"entries"`
}

// PaymentImportEntry records how a single credit entry was handled.
type PaymentImportEntry struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	PaymentImportID uint            `gorm:"index;not null" json:"-"`
	StatementID     string          `gorm:"size:100" json:"statement_id,omitempty"`
	Reference       string          `gorm:"size:35;index" json:"reference,omitempty"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Currency        string          `gorm:"size:3" json:"currency"`
	BookingDate     time.Time       `json:"booking_date"`
	OrderID         *uint           `gorm:"index" json:"order_id,omitempty"`
	Result          ImportResult    `gorm:"size:20;not null" json:"result"`
}
