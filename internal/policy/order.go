// Package policy wires the gate to orders: operator profiles stored in the
// database and the lifecycle rules that lock paid or shipped orders.
package policy

import (
	"context"
	"errors"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/internal/models"
)

var (
	ErrLinesLocked    = errors.New("order_lines_locked")
	ErrDetailsLocked  = errors.New("order_details_locked")
	ErrAlreadyPaid    = errors.New("order_already_paid")
	ErrAlreadyShipped = errors.New("order_already_shipped")
)

// CheckOrder applies the lifecycle rules of o to action. Once paid, address
// and payment fields are frozen; once paid or shipped, items and fees are.
func CheckOrder(o *models.Order, action gate.Action) error {
	switch action {
	case gate.ActionUpdateLines:
		if o.LinesLocked() {
			return ErrLinesLocked
		}
	case gate.ActionUpdateAddress, gate.ActionUpdate, gate.ActionDelete:
		if o.DetailsLocked() {
			return ErrDetailsLocked
		}
	case gate.ActionMarkPaid:
		if o.Paid {
			return ErrAlreadyPaid
		}
	case gate.ActionMarkShipped:
		if o.Shipped {
			return ErrAlreadyShipped
		}
	}
	return nil
}

// OrderPolicy is the gate policy of gate.ResourceOrder.
type OrderPolicy struct{}

func (OrderPolicy) Allow(_ context.Context, _ string, action gate.Action, obj any) error {
	o, ok := obj.(*models.Order)
	if !ok {
		return nil
	}
	return CheckOrder(o, action)
}
