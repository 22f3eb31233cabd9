// Package settings stores typed runtime settings. A value is exactly one of
// Text, Number, Bool or URL; the kind is persisted next to the raw text.
package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/diewo77/go-orders/internal/conditions"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Known keys.
const (
	KeyRoundingIncrement = "billing.rounding_increment"
	KeyDefaultConditions = "billing.default_conditions"
	KeyDefaultReceiver   = "billing.default_receiver_id"
	KeyInvoiceFooter     = "invoice.footer"
	KeyShopURL           = "shop.url"
	KeyAttachPDF         = "mail.attach_pdf"
)

var (
	ErrNotFound     = errors.New("setting_not_found")
	ErrKindMismatch = errors.New("setting_kind_mismatch")
	ErrInvalidValue = errors.New("setting_invalid_value")
)

// Kind tags the variant stored in a row.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindURL    Kind = "url"
)

// Value is implemented by Text, Number, Bool and URL only.
type Value interface {
	Kind() Kind
	String() string
	sealed()
}

type Text string

type Number struct{ decimal.Decimal }

type Bool bool

type URL struct{ *url.URL }

func (Text) Kind() Kind   { return KindText }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (URL) Kind() Kind    { return KindURL }

func (t Text) String() string   { return string(t) }
func (n Number) String() string { return n.Decimal.String() }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (u URL) String() string {
	if u.URL == nil {
		return ""
	}
	return u.URL.String()
}

func (Text) sealed()   {}
func (Number) sealed() {}
func (Bool) sealed()   {}
func (URL) sealed()    {}

// Decode rebuilds a Value from its persisted kind and text.
func Decode(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindText:
		return Text(raw), nil
	case KindNumber:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", raw, ErrInvalidValue)
		}
		return Number{d}, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("bool %q: %w", raw, ErrInvalidValue)
		}
		return Bool(b), nil
	case KindURL:
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("url %q: %w", raw, ErrInvalidValue)
		}
		return URL{u}, nil
	}
	return nil, fmt.Errorf("kind %q: %w", kind, ErrInvalidValue)
}

// Store reads and writes settings rows.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (Value, error) {
	var row models.Setting
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return Decode(Kind(row.Kind), row.Value)
}

// kinds fixes the variant of the known keys.
var kinds = map[string]Kind{
	KeyRoundingIncrement: KindNumber,
	KeyDefaultConditions: KindText,
	KeyDefaultReceiver:   KindNumber,
	KeyInvoiceFooter:     KindText,
	KeyShopURL:           KindURL,
	KeyAttachPDF:         KindBool,
}

// Check reports whether v may be stored under key. Known keys must hold
// their own kind and a value the billing code can use; other keys take
// anything.
func Check(key string, v Value) error {
	want, known := kinds[key]
	if !known {
		return nil
	}
	if v.Kind() != want {
		return fmt.Errorf("%s must be %s, got %s: %w", key, want, v.Kind(), ErrKindMismatch)
	}
	switch key {
	case KeyRoundingIncrement:
		if !v.(Number).IsPositive() {
			return fmt.Errorf("%s %s must be positive: %w", key, v, ErrInvalidValue)
		}
	case KeyDefaultReceiver:
		if n := v.(Number); n.IsNegative() || !n.IsInteger() {
			return fmt.Errorf("%s %s must be a receiver id: %w", key, v, ErrInvalidValue)
		}
	case KeyDefaultConditions:
		if err := conditions.Validate(string(v.(Text))); err != nil {
			return fmt.Errorf("%s: %w: %w", key, ErrInvalidValue, err)
		}
	}
	return nil
}

// Set stores v under key, replacing any previous value and kind. Values
// rejected by Check are not stored.
func (s *Store) Set(ctx context.Context, key string, v Value) error {
	if err := Check(key, v); err != nil {
		return err
	}
	row := models.Setting{Name: key, Kind: string(v.Kind()), Value: v.String()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "value", "updated_at"}),
	}).Create(&row).Error
}

// Delete removes key; a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("name = ?", key).Delete(&models.Setting{}).Error
}

// All returns every setting keyed by name.
func (s *Store) All(ctx context.Context) (map[string]Value, error) {
	var rows []models.Setting
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]Value, len(rows))
	for _, r := range rows {
		v, err := Decode(Kind(r.Kind), r.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name, err)
		}
		out[r.Name] = v
	}
	return out, nil
}

// Text returns the text setting key or def when unset.
func (s *Store) Text(ctx context.Context, key, def string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	t, ok := v.(Text)
	if !ok {
		return "", fmt.Errorf("%s is %s: %w", key, v.Kind(), ErrKindMismatch)
	}
	return string(t), nil
}

// Number returns the number setting key or def when unset.
func (s *Store) Number(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	n, ok := v.(Number)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s is %s: %w", key, v.Kind(), ErrKindMismatch)
	}
	return n.Decimal, nil
}

// Bool returns the bool setting key or def when unset.
func (s *Store) Bool(ctx context.Context, key string, def bool) (bool, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return false, err
	}
	b, ok := v.(Bool)
	if !ok {
		return false, fmt.Errorf("%s is %s: %w", key, v.Kind(), ErrKindMismatch)
	}
	return bool(b), nil
}
