package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/internal/policy"
	"github.com/diewo77/go-orders/validation"
)

var (
	ErrOrderNotFound    = errors.New("order_not_found")
	ErrLineNotFound     = errors.New("order_line_not_found")
	ErrReceiverNotFound = errors.New("payment_receiver_not_found")
	ErrImportNotFound   = errors.New("payment_import_not_found")
	ErrOrderLocked      = errors.New("order_locked")
	ErrInvalidInput     = errors.New("invalid_input")
	ErrNoRecipient      = errors.New("order_has_no_email")
)

// ValidationError carries field violations. It matches ErrInvalidInput.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		fields = append(fields, f+"="+code)
	}
	sort.Strings(fields)
	return "invalid input: " + strings.Join(fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// lifecycle wraps a policy refusal so callers can match ErrOrderLocked and
// the precise policy error.
func lifecycle(o *models.Order, action gate.Action) error {
	if err := policy.CheckOrder(o, action); err != nil {
		return fmt.Errorf("order %d: %w: %w", o.ID, ErrOrderLocked, err)
	}
	return nil
}

func field(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
