package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/diewo77/go-orders/i18n"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/internal/qrbill"
	"github.com/diewo77/go-orders/validation"
	"gorm.io/gorm"
)

var ErrDuplicate = errors.New("already_exists")

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CatalogService manages customers, suppliers, products, fee templates and
// payment receivers.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) CreateCustomer(ctx context.Context, c *models.Customer) error {
	v := validation.Violations{}
	validation.Check("name", c.Address.Name() != "", "required", v)
	validation.Match("email", c.Address.Email, emailPattern, v)
	c.Language = i18n.Normalize(c.Language)
	if err := invalid(v); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *CatalogService) Customers(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	err := s.db.WithContext(ctx).Order("company, last_name, first_name").Find(&out).Error
	return out, err
}

func (s *CatalogService) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	v := validation.Violations{}
	validation.Required("name", sup.Name, v)
	validation.Match("email", sup.Email, emailPattern, v)
	if err := invalid(v); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(sup).Error
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	v := validation.Violations{}
	validation.Required("sku", p.SKU, v)
	validation.Required("name", p.Name, v)
	validation.NonNegativeDecimal("price", p.Price, v)
	validation.Check("vat_rate", models.ValidVATRate(p.VATRate), "invalid_choice", v)
	if err := invalid(v); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Product{}).Where("sku = ?", p.SKU).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("product %s: %w", p.SKU, ErrDuplicate)
		}
		return tx.Create(p).Error
	})
}

// Products lists active products unless all is set.
func (s *CatalogService) Products(ctx context.Context, all bool) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Preload("Supplier").Order("name")
	if !all {
		q = q.Where("active = ?", true)
	}
	var out []models.Product
	err := q.Find(&out).Error
	return out, err
}

func (s *CatalogService) CreateFee(ctx context.Context, f *models.Fee) error {
	v := validation.Violations{}
	validation.Required("name", f.Name, v)
	validation.NonNegativeDecimal("price", f.Price, v)
	validation.Check("vat_rate", models.ValidVATRate(f.VATRate), "invalid_choice", v)
	if err := invalid(v); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(f).Error
}

func (s *CatalogService) Fees(ctx context.Context) ([]models.Fee, error) {
	var out []models.Fee
	err := s.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// CreateReceiver normalises the account numbers and stores a valid receiver.
func (s *CatalogService) CreateReceiver(ctx context.Context, r *models.PaymentReceiver) error {
	if r.Mode == "" {
		r.Mode = qrbill.ModeQRR
	}
	if r.Country == "" {
		r.Country = "CH"
	}
	r.QRIBAN = strings.ToUpper(qrbill.StripSpaces(r.QRIBAN))
	r.IBAN = strings.ToUpper(qrbill.StripSpaces(r.IBAN))
	if err := invalid(r.Validate()); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *CatalogService) Receivers(ctx context.Context) ([]models.PaymentReceiver, error) {
	var out []models.PaymentReceiver
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}
