package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/diewo77/go-orders/internal/camt"
	"github.com/diewo77/go-orders/internal/conditions"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/internal/money"
	"github.com/diewo77/go-orders/internal/qrbill"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// PaymentImportService books camt.053 credit entries against unpaid orders.
type PaymentImportService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewPaymentImportService(db *gorm.DB, log zerolog.Logger) *PaymentImportService {
	return &PaymentImportService{db: db, log: log}
}

// Import parses a statement and records one entry per booked transaction.
// Matched orders are marked paid on the booking date.
func (s *PaymentImportService) Import(ctx context.Context, r io.Reader, fileName string) (*models.PaymentImport, error) {
	entries, err := camt.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	batch := models.PaymentImport{BatchID: uuid.New().String(), FileName: fileName}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return fmt.Errorf("create import: %w", err)
		}
		for _, e := range entries {
			// A payment settles one invoice; further references are ignored.
			var ref string
			if len(e.References) > 0 {
				ref = e.References[0]
			}
			rec, err := s.match(tx, e, ref)
			if err != nil {
				return err
			}
			rec.PaymentImportID = batch.ID
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("create import entry: %w", err)
			}
			batch.Entries = append(batch.Entries, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("batch", batch.BatchID).Int("entries", len(batch.Entries)).Msg("payment import")
	return &batch, nil
}

func (s *PaymentImportService) match(tx *gorm.DB, e camt.Entry, ref string) (models.PaymentImportEntry, error) {
	rec := models.PaymentImportEntry{
		StatementID: e.StatementID,
		Reference:   qrbill.StripSpaces(ref),
		Amount:      e.Amount,
		Currency:    e.Currency,
		BookingDate: e.BookingDate,
		Result:      models.ImportUnmatched,
	}
	if !e.IsCredit() {
		rec.Result = models.ImportSkipped
		return rec, nil
	}
	id, ok := orderIDFromReference(rec.Reference)
	if !ok {
		return rec, nil
	}
	o, err := findOrder(tx, id)
	if errors.Is(err, ErrOrderNotFound) {
		return rec, nil
	}
	if err != nil {
		return rec, err
	}
	rec.OrderID = &o.ID
	if o.Paid {
		rec.Result = models.ImportAlreadyPaid
		return rec, nil
	}
	if !covers(o, e) {
		rec.Result = models.ImportUnderpaid
		s.log.Warn().Uint("order", o.ID).Str("amount", e.Amount.String()).Msg("payment below due amount")
		return rec, nil
	}
	if err := markPaid(tx, o, e.BookingDate); err != nil {
		return rec, err
	}
	rec.Result = models.ImportMatched
	return rec, nil
}

// covers reports whether the entry pays the order: the amount reaches the
// price of a condition still open on the booking date, or the full total.
func covers(o *models.Order, e camt.Entry) bool {
	if e.Amount.GreaterThanOrEqual(o.Total) {
		return true
	}
	inc := o.RoundingIncrement
	if !inc.IsPositive() {
		inc = money.DefaultIncrement
	}
	list, err := conditions.ParseRounded(o.PaymentConditions, o.Date, o.Total, inc)
	if err != nil {
		return false
	}
	c, ok := conditions.Applicable(list, e.BookingDate)
	return ok && e.Amount.GreaterThanOrEqual(c.Price)
}

// orderIDFromReference recovers the order id of a reference issued by
// qrbill.ReferenceNumber.
func orderIDFromReference(ref string) (uint, bool) {
	if !qrbill.ValidReference(ref) || !strings.HasSuffix(ref[:26], "0000") {
		return 0, false
	}
	id, err := strconv.ParseUint(ref[:22], 10, 64)
	if err != nil || id == 0 || uint64(uint(id)) != id {
		return 0, false
	}
	return uint(id), true
}

// Get loads an import batch with its entries.
func (s *PaymentImportService) Get(ctx context.Context, batchID string) (*models.PaymentImport, error) {
	var batch models.PaymentImport
	err := s.db.WithContext(ctx).Preload("Entries").Where("batch_id = ?", batchID).First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("import %s: %w", batchID, ErrImportNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
