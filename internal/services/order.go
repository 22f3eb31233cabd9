package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/i18n"
	"github.com/diewo77/go-orders/internal/billing"
	"github.com/diewo77/go-orders/internal/conditions"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/internal/money"
	"github.com/diewo77/go-orders/internal/settings"
	"github.com/diewo77/go-orders/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultConditions applies when neither the order nor the settings name any.
const DefaultConditions = "0:30"

var hundred = decimal.NewFromInt(100)

// LineInput describes a new order item. Price, VAT rate and description are
// copied from the product when ProductID is set and the field is omitted.
type LineInput struct {
	ProductID   *uint            `json:"product_id,omitempty"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    int              `json:"quantity"`
	VATRate     *decimal.Decimal `json:"vat_rate,omitempty"`
	Discount    decimal.Decimal  `json:"discount"`
}

// FeeInput describes a new order fee, optionally based on a fee template.
type FeeInput struct {
	FeeID       *uint            `json:"fee_id,omitempty"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	VATRate     *decimal.Decimal `json:"vat_rate,omitempty"`
	Discount    decimal.Decimal  `json:"discount"`
}

// LineUpdate changes the non-nil fields of an item.
type LineUpdate struct {
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	VATRate     *decimal.Decimal `json:"vat_rate,omitempty"`
	Discount    *decimal.Decimal `json:"discount,omitempty"`
}

type CreateOrderInput struct {
	Date              time.Time            `json:"date"`
	CustomerID        *uint                `json:"customer_id,omitempty"`
	Billing           *models.Address      `json:"billing,omitempty"`
	Shipping          *models.Address      `json:"shipping,omitempty"`
	PaymentReceiverID uint                 `json:"payment_receiver_id"`
	PaymentMethod     models.PaymentMethod `json:"payment_method"`
	PaymentConditions string               `json:"payment_conditions"`
	Message           string               `json:"message"`
	Language          string               `json:"language"`
	Items             []LineInput          `json:"items"`
	Fees              []FeeInput           `json:"fees"`
}

// DetailsInput changes the non-nil address and payment fields of an order.
type DetailsInput struct {
	Billing           *models.Address       `json:"billing,omitempty"`
	Shipping          *models.Address       `json:"shipping,omitempty"`
	PaymentMethod     *models.PaymentMethod `json:"payment_method,omitempty"`
	PaymentConditions *string               `json:"payment_conditions,omitempty"`
	Message           *string               `json:"message,omitempty"`
	Language          *string               `json:"language,omitempty"`
}

type OrderService struct {
	db       *gorm.DB
	settings *settings.Store
	now      func() time.Time
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, settings: settings.NewStore(db), now: time.Now}
}

// Calculator returns the billing calculator configured by the rounding
// increment setting.
func (s *OrderService) Calculator(ctx context.Context) (billing.Calculator, error) {
	inc, err := s.settings.Number(ctx, settings.KeyRoundingIncrement, money.DefaultIncrement)
	if err != nil {
		return billing.Calculator{}, err
	}
	return billing.NewWithIncrement(inc)
}

// calculatorFor keeps the increment an order was last computed with once its
// lines are locked; open orders follow current.
func calculatorFor(o *models.Order, current billing.Calculator) billing.Calculator {
	if !o.LinesLocked() || !o.RoundingIncrement.IsPositive() {
		return current
	}
	calc, err := billing.NewWithIncrement(o.RoundingIncrement)
	if err != nil {
		return current
	}
	return calc
}

// Create stores a new order in three steps inside one transaction: the order
// shell with its address snapshot, then items and fees, then the cached total.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	calc, err := s.Calculator(ctx)
	if err != nil {
		return nil, err
	}
	// Settings are read before the transaction starts so the transaction
	// never waits on its own connection pool.
	defConditions, err := s.settings.Text(ctx, settings.KeyDefaultConditions, DefaultConditions)
	if err != nil {
		return nil, err
	}
	defReceiver, err := s.settings.Number(ctx, settings.KeyDefaultReceiver, decimal.Zero)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		Date:              in.Date,
		CustomerID:        in.CustomerID,
		PaymentReceiverID: in.PaymentReceiverID,
		PaymentMethod:     in.PaymentMethod,
		PaymentConditions: strings.TrimSpace(in.PaymentConditions),
		Message:           strings.TrimSpace(in.Message),
	}
	if order.Date.IsZero() {
		order.Date = s.now()
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentMethodInvoice
	}
	if order.PaymentConditions == "" {
		order.PaymentConditions = defConditions
	}
	if order.PaymentReceiverID == 0 {
		order.PaymentReceiverID = uint(defReceiver.IntPart())
	}

	v := validation.Violations{}
	validation.OneOf("payment_method", string(order.PaymentMethod), models.PaymentMethods, v)
	validation.Check("payment_conditions", conditions.Validate(order.PaymentConditions) == nil, "invalid_format", v)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lang := in.Language
		if order.CustomerID != nil {
			var c models.Customer
			err := tx.First(&c, *order.CustomerID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				v.Add("customer_id", "not_found")
			case err != nil:
				return err
			default:
				order.Billing = c.Address
				order.Shipping = c.Shipping()
				if lang == "" {
					lang = c.Language
				}
			}
		}
		if in.Billing != nil {
			order.Billing = *in.Billing
		}
		if in.Shipping != nil {
			order.Shipping = *in.Shipping
		}
		if order.Shipping.IsZero() {
			order.Shipping = order.Billing
		}
		order.Language = i18n.Normalize(lang)

		if err := resolveReceiver(tx, &order.PaymentReceiverID, v); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(in.Items))
		for i, li := range in.Items {
			item, err := itemFromInput(tx, fmt.Sprintf("items.%d", i), li, v)
			if err != nil {
				return err
			}
			item.Position = i
			items = append(items, item)
		}
		fees := make([]models.OrderFee, 0, len(in.Fees))
		for i, fi := range in.Fees {
			fee, err := feeFromInput(tx, fmt.Sprintf("fees.%d", i), fi, v)
			if err != nil {
				return err
			}
			fees = append(fees, fee)
		}
		if err := invalid(v); err != nil {
			return err
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		for i := range fees {
			fees[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("create items: %w", err)
			}
		}
		if len(fees) > 0 {
			if err := tx.Create(&fees).Error; err != nil {
				return fmt.Errorf("create fees: %w", err)
			}
		}

		_, err := recalculate(tx, calc, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.ID)
}

// resolveReceiver falls back to the first receiver when id is zero.
func resolveReceiver(tx *gorm.DB, id *uint, v validation.Violations) error {
	var r models.PaymentReceiver
	var err error
	if *id == 0 {
		err = tx.Order("id").First(&r).Error
	} else {
		err = tx.First(&r, *id).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if *id == 0 {
			v.Add("payment_receiver_id", "required")
		} else {
			v.Add("payment_receiver_id", "not_found")
		}
		return nil
	}
	if err != nil {
		return err
	}
	*id = r.ID
	return nil
}

func itemFromInput(tx *gorm.DB, prefix string, in LineInput, v validation.Violations) (models.OrderItem, error) {
	item := models.OrderItem{
		ProductID:   in.ProductID,
		Description: strings.TrimSpace(in.Description),
		Quantity:    in.Quantity,
		Discount:    in.Discount,
	}
	priced := false
	if in.ProductID != nil {
		var p models.Product
		err := tx.First(&p, *in.ProductID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			v.Add(field(prefix, "product_id"), "not_found")
		case err != nil:
			return item, err
		default:
			if item.Description == "" {
				item.Description = p.Name
			}
			item.Price, item.VATRate = p.Price, p.VATRate
			priced = true
		}
	}
	if in.Price != nil {
		item.Price = *in.Price
	} else if !priced {
		v.Add(field(prefix, "price"), "required")
	}
	if in.VATRate != nil {
		item.VATRate = *in.VATRate
	} else if !priced {
		v.Add(field(prefix, "vat_rate"), "required")
	}
	checkItem(prefix, &item, v)
	return item, nil
}

func feeFromInput(tx *gorm.DB, prefix string, in FeeInput, v validation.Violations) (models.OrderFee, error) {
	fee := models.OrderFee{
		FeeID:       in.FeeID,
		Description: strings.TrimSpace(in.Description),
		Discount:    in.Discount,
	}
	priced := false
	if in.FeeID != nil {
		var f models.Fee
		err := tx.First(&f, *in.FeeID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			v.Add(field(prefix, "fee_id"), "not_found")
		case err != nil:
			return fee, err
		default:
			if fee.Description == "" {
				fee.Description = f.Name
			}
			fee.Price, fee.VATRate = f.Price, f.VATRate
			priced = true
		}
	}
	if in.Price != nil {
		fee.Price = *in.Price
	} else if !priced {
		v.Add(field(prefix, "price"), "required")
	}
	if in.VATRate != nil {
		fee.VATRate = *in.VATRate
	} else if !priced {
		v.Add(field(prefix, "vat_rate"), "required")
	}
	validation.Required(field(prefix, "description"), fee.Description, v)
	validation.NonNegativeDecimal(field(prefix, "price"), fee.Price, v)
	validation.RangeDecimal(field(prefix, "discount"), fee.Discount, decimal.Zero, hundred, v)
	validation.Check(field(prefix, "vat_rate"), models.ValidVATRate(fee.VATRate), "invalid_choice", v)
	return fee, nil
}

func checkItem(prefix string, item *models.OrderItem, v validation.Violations) {
	validation.Required(field(prefix, "description"), item.Description, v)
	validation.NonNegativeDecimal(field(prefix, "price"), item.Price, v)
	validation.PositiveInt(field(prefix, "quantity"), item.Quantity, v)
	validation.RangeDecimal(field(prefix, "discount"), item.Discount, decimal.Zero, hundred, v)
	validation.Check(field(prefix, "vat_rate"), models.ValidVATRate(item.VATRate), "invalid_choice", v)
}

// Lines converts stored items and fees for the calculator.
func Lines(items []models.OrderItem, fees []models.OrderFee) (itemLines, feeLines []billing.Line) {
	itemLines = make([]billing.Line, len(items))
	for i, it := range items {
		itemLines[i] = it
	}
	feeLines = make([]billing.Line, len(fees))
	for i, f := range fees {
		feeLines[i] = f
	}
	return itemLines, feeLines
}

// recalculate recomputes the totals of an order from its stored lines and
// caches the VAT-inclusive total on the order row.
func recalculate(tx *gorm.DB, calc billing.Calculator, orderID uint) (billing.Totals, error) {
	totals, err := computeTotals(tx, calc, orderID)
	if err != nil {
		return totals, err
	}
	err = tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]any{
		"total":              totals.Total,
		"rounding_increment": calc.Increment,
	}).Error
	if err != nil {
		return totals, fmt.Errorf("store total: %w", err)
	}
	return totals, nil
}

func computeTotals(tx *gorm.DB, calc billing.Calculator, orderID uint) (billing.Totals, error) {
	var items []models.OrderItem
	var fees []models.OrderFee
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return billing.Totals{}, err
	}
	if err := tx.Where("order_id = ?", orderID).Find(&fees).Error; err != nil {
		return billing.Totals{}, err
	}
	il, fl := Lines(items, fees)
	return calc.Totals(il, fl)
}

// Recalculate recomputes the totals of an order. The cached total is only
// rewritten while the lines may still change; locked orders are computed with
// the increment stored on them.
func (s *OrderService) Recalculate(ctx context.Context, id uint) (billing.Totals, error) {
	calc, err := s.Calculator(ctx)
	if err != nil {
		return billing.Totals{}, err
	}
	var totals billing.Totals
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := findOrder(tx, id)
		if err != nil {
			return err
		}
		if o.LinesLocked() {
			totals, err = computeTotals(tx, calculatorFor(o, calc), id)
			return err
		}
		totals, err = recalculate(tx, calc, id)
		return err
	})
	return totals, err
}

func findOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var o models.Order
	err := tx.First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Get loads an order with its lines and payment receiver.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Fees", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("PaymentReceiver").
		First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns the orders of a view, newest first.
func (s *OrderService) List(ctx context.Context, view models.OrderView) ([]models.Order, error) {
	scope, ok := view.Scope()
	if !ok {
		return nil, invalid(validation.Violations{"view": "invalid_choice"})
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).Scopes(scope).Order("date desc, id desc").Find(&orders).Error
	return orders, err
}

// mutateLines runs fn on an order whose lines are still editable and then
// refreshes the cached total, all in one transaction.
func (s *OrderService) mutateLines(ctx context.Context, orderID uint, fn func(tx *gorm.DB, o *models.Order) error) error {
	calc, err := s.Calculator(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := findOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := lifecycle(o, gate.ActionUpdateLines); err != nil {
			return err
		}
		if err := fn(tx, o); err != nil {
			return err
		}
		_, err = recalculate(tx, calc, orderID)
		return err
	})
}

func (s *OrderService) AddItem(ctx context.Context, orderID uint, in LineInput) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.mutateLines(ctx, orderID, func(tx *gorm.DB, o *models.Order) error {
		v := validation.Violations{}
		it, err := itemFromInput(tx, "", in, v)
		if err != nil {
			return err
		}
		if err := invalid(v); err != nil {
			return err
		}
		var next int
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", o.ID).
			Select("COALESCE(MAX(position), -1) + 1").Scan(&next).Error; err != nil {
			return err
		}
		it.OrderID, it.Position = o.ID, next
		if err := tx.Create(&it).Error; err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *OrderService) UpdateItem(ctx context.Context, orderID, itemID uint, in LineUpdate) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.mutateLines(ctx, orderID, func(tx *gorm.DB, o *models.Order) error {
		err := tx.Where("id = ? AND order_id = ?", itemID, o.ID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("item %d: %w", itemID, ErrLineNotFound)
		}
		if err != nil {
			return err
		}
		if in.Description != nil {
			item.Description = strings.TrimSpace(*in.Description)
		}
		if in.Price != nil {
			item.Price = *in.Price
		}
		if in.Quantity != nil {
			item.Quantity = *in.Quantity
		}
		if in.VATRate != nil {
			item.VATRate = *in.VATRate
		}
		if in.Discount != nil {
			item.Discount = *in.Discount
		}
		v := validation.Violations{}
		checkItem("", &item, v)
		if err := invalid(v); err != nil {
			return err
		}
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uint) error {
	return s.mutateLines(ctx, orderID, func(tx *gorm.DB, o *models.Order) error {
		res := tx.Where("id = ? AND order_id = ?", itemID, o.ID).Delete(&models.OrderItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("item %d: %w", itemID, ErrLineNotFound)
		}
		return nil
	})
}

func (s *OrderService) AddFee(ctx context.Context, orderID uint, in FeeInput) (*models.OrderFee, error) {
	var fee models.OrderFee
	err := s.mutateLines(ctx, orderID, func(tx *gorm.DB, o *models.Order) error {
		v := validation.Violations{}
		f, err := feeFromInput(tx, "", in, v)
		if err != nil {
			return err
		}
		if err := invalid(v); err != nil {
			return err
		}
		f.OrderID = o.ID
		if err := tx.Create(&f).Error; err != nil {
			return fmt.Errorf("create fee: %w", err)
		}
		fee = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (s *OrderService) RemoveFee(ctx context.Context, orderID, feeID uint) error {
	return s.mutateLines(ctx, orderID, func(tx *gorm.DB, o *models.Order) error {
		res := tx.Where("id = ? AND order_id = ?", feeID, o.ID).Delete(&models.OrderFee{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("fee %d: %w", feeID, ErrLineNotFound)
		}
		return nil
	})
}

// UpdateDetails changes address and payment fields until the order is paid.
func (s *OrderService) UpdateDetails(ctx context.Context, id uint, in DetailsInput) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := findOrder(tx, id)
		if err != nil {
			return err
		}
		if err := lifecycle(o, gate.ActionUpdateAddress); err != nil {
			return err
		}
		if in.Billing != nil {
			o.Billing = *in.Billing
		}
		if in.Shipping != nil {
			o.Shipping = *in.Shipping
		}
		if in.PaymentMethod != nil {
			o.PaymentMethod = *in.PaymentMethod
		}
		if in.PaymentConditions != nil {
			o.PaymentConditions = strings.TrimSpace(*in.PaymentConditions)
		}
		if in.Message != nil {
			o.Message = strings.TrimSpace(*in.Message)
		}
		if in.Language != nil {
			o.Language = i18n.Normalize(*in.Language)
		}
		v := validation.Violations{}
		validation.OneOf("payment_method", string(o.PaymentMethod), models.PaymentMethods, v)
		validation.Check("payment_conditions", conditions.Validate(o.PaymentConditions) == nil, "invalid_format", v)
		if err := invalid(v); err != nil {
			return err
		}
		return tx.Save(o).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// MarkPaid records the payment of an order; a zero at means now.
func (s *OrderService) MarkPaid(ctx context.Context, id uint, at time.Time) (*models.Order, error) {
	if at.IsZero() {
		at = s.now()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := findOrder(tx, id)
		if err != nil {
			return err
		}
		return markPaid(tx, o, at)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func markPaid(tx *gorm.DB, o *models.Order, at time.Time) error {
	if err := lifecycle(o, gate.ActionMarkPaid); err != nil {
		return err
	}
	return tx.Model(o).Updates(map[string]any{"paid": true, "paid_at": at}).Error
}

// MarkShipped records the shipment of an order; a zero at means now.
func (s *OrderService) MarkShipped(ctx context.Context, id uint, at time.Time) (*models.Order, error) {
	if at.IsZero() {
		at = s.now()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := findOrder(tx, id)
		if err != nil {
			return err
		}
		if err := lifecycle(o, gate.ActionMarkShipped); err != nil {
			return err
		}
		return tx.Model(o).Updates(map[string]any{"shipped": true, "shipped_at": at}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
