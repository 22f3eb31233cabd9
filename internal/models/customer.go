package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a buyer. Its addresses are copied onto every new order.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address         Address `gorm:"embedded" json:"address"`
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Phone           string  `gorm:"size:50" json:"phone,omitempty"`
	Language        string  `gorm:"size:2;default:'de'" json:"language"`
	Notes           string  `gorm:"type:text" json:"notes,omitempty"`

	Orders []Order `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
}

// Shipping falls back to the billing address when no shipping address is set.
func (c *Customer) Shipping() Address {
	if c.ShippingAddress.IsZero() {
		return c.Address
	}
	return c.ShippingAddress
}

// Supplier delivers products.
type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name  string `gorm:"size:255;not null" json:"name"`
	Email string `gorm:"size:255" json:"email,omitempty"`
	Phone string `gorm:"size:50" json:"phone,omitempty"`
}

// Product is a catalog entry; order items copy its price and VAT rate.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SKU     string          `gorm:"size:64;uniqueIndex" json:"sku"`
	Name    string          `gorm:"size:255;not null" json:"name"`
	Price   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	VATRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vat_rate"`
	Active  bool            `gorm:"not null;default:true" json:"active"`

	SupplierID *uint     `gorm:"index" json:"supplier_id,omitempty"`
	Supplier   *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// Fee is a reusable order fee template (shipping, packaging).
type Fee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string          `gorm:"size:255;not null" json:"name"`
	Price   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	VATRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vat_rate"`
}
