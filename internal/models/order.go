package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Address is a postal address. Orders keep their own copy so invoices stay
// stable when the customer moves.
type Address struct {
	Company   string `gorm:"size:255" json:"company,omitempty"`
	FirstName string `gorm:"size:100" json:"first_name,omitempty"`
	LastName  string `gorm:"size:100" json:"last_name,omitempty"`
	Line1     string `gorm:"size:255" json:"line1,omitempty"`
	Line2     string `gorm:"size:255" json:"line2,omitempty"`
	Postcode  string `gorm:"size:20" json:"postcode,omitempty"`
	City      string `gorm:"size:100" json:"city,omitempty"`
	Country   string `gorm:"size:2" json:"country,omitempty"`
	Email     string `gorm:"size:255" json:"email,omitempty"`
}

// Name is the company name if present, otherwise "first last".
func (a Address) Name() string {
	if c := strings.TrimSpace(a.Company); c != "" {
		return c
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool { return a == Address{} }

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	PaymentMethodInvoice PaymentMethod = "invoice"
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodTwint   PaymentMethod = "twint"
)

// PaymentMethods lists every accepted method.
var PaymentMethods = []string{
	string(PaymentMethodInvoice), string(PaymentMethodCash),
	string(PaymentMethodCard), string(PaymentMethodTwint),
}

// Order is a customer order and its invoice.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Date time.Time `gorm:"not null;index" json:"date"`

	CustomerID *uint     `gorm:"index" json:"customer_id,omitempty"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"-"`

	// Address snapshot taken when the order is created.
	Billing  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`
	Shipping Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`

	PaymentReceiverID uint             `gorm:"index;not null" json:"payment_receiver_id"`
	PaymentReceiver   *PaymentReceiver `gorm:"foreignKey:PaymentReceiverID" json:"-"`
	PaymentMethod     PaymentMethod    `gorm:"size:20;default:'invoice'" json:"payment_method"`
	PaymentConditions string           `gorm:"size:255" json:"payment_conditions,omitempty"`
	Message           string           `gorm:"size:140" json:"message,omitempty"`
	Language          string           `gorm:"size:2;default:'de'" json:"language"`

	// Total is the VAT-inclusive total cached after every line change.
	Total decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	// RoundingIncrement is the increment Total was last computed with. It is
	// frozen together with the lines once the order is paid or shipped.
	RoundingIncrement decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"rounding_increment"`

	Paid      bool       `gorm:"not null;default:false;index" json:"paid"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	Shipped   bool       `gorm:"not null;default:false;index" json:"shipped"`
	ShippedAt *time.Time `json:"shipped_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Fees  []OrderFee  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"fees,omitempty"`
}

// LinesLocked reports whether items and fees are read-only.
func (o *Order) LinesLocked() bool { return o.Paid || o.Shipped }

// DetailsLocked reports whether address and payment fields are read-only.
func (o *Order) DetailsLocked() bool { return o.Paid }

// OrderItem is a product line. Price and VAT rate are copied from the product.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderID   uint     `gorm:"index;not null" json:"order_id"`
	ProductID *uint    `gorm:"index" json:"product_id,omitempty"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"-"`

	Description string          `gorm:"size:255;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	VATRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vat_rate"`
	Discount    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount"`
	Position    int             `gorm:"default:0" json:"position"`
}

func (i OrderItem) UnitPrice() decimal.Decimal       { return i.Price }
func (i OrderItem) Qty() int                         { return i.Quantity }
func (i OrderItem) DiscountPercent() decimal.Decimal { return i.Discount }
func (i OrderItem) VAT() decimal.Decimal             { return i.VATRate }

// OrderFee is an order level cost such as shipping; its quantity is always 1.
type OrderFee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderID uint  `gorm:"index;not null" json:"order_id"`
	FeeID   *uint `gorm:"index" json:"fee_id,omitempty"`
	Fee     *Fee  `gorm:"foreignKey:FeeID" json:"-"`

	Description string          `gorm:"size:255;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	VATRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vat_rate"`
	Discount    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount"`
}

func (f OrderFee) UnitPrice() decimal.Decimal       { return f.Price }
func (f OrderFee) Qty() int                         { return 1 }
func (f OrderFee) DiscountPercent() decimal.Decimal { return f.Discount }
func (f OrderFee) VAT() decimal.Decimal             { return f.VATRate }

// Filtered order views. They return plain Order rows.

func Unpaid(db *gorm.DB) *gorm.DB    { return db.Where("paid = ?", false) }
func Unshipped(db *gorm.DB) *gorm.DB { return db.Where("shipped = ?", false) }
func Paid(db *gorm.DB) *gorm.DB      { return db.Where("paid = ?", true) }

// PaidBetween keeps orders paid in [from, to).
func PaidBetween(from, to time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return Paid(db).Where("paid_at >= ? AND paid_at < ?", from, to)
	}
}

// OrderView names one of the filtered views.
type OrderView string

const (
	ViewAll       OrderView = ""
	ViewUnpaid    OrderView = "unpaid"
	ViewUnshipped OrderView = "unshipped"
	ViewPaid      OrderView = "paid"
)

// Scope returns the query scope of the view and false for unknown names.
func (v OrderView) Scope() (func(*gorm.DB) *gorm.DB, bool) {
	switch v {
	case ViewAll:
		return func(db *gorm.DB) *gorm.DB { return db }, true
	case ViewUnpaid:
		return Unpaid, true
	case ViewUnshipped:
		return Unshipped, true
	case ViewPaid:
		return Paid, true
	}
	return nil, false
}
