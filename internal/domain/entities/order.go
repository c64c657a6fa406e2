// Package entities - Order is the external aggregate the wallet reconciles
// against. Only the slice the payment flow needs is modeled: totals, state
// and the attached payments.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// OrderState is the checkout progression of an order.
type OrderState string

const (
	OrderStateCart     OrderState = "cart"
	OrderStatePayment  OrderState = "payment"
	OrderStateConfirm  OrderState = "confirm"
	OrderStateComplete OrderState = "complete"
	OrderStateCanceled OrderState = "canceled"
)

// IsValid checks if the order state is valid.
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateCart, OrderStatePayment, OrderStateConfirm, OrderStateComplete, OrderStateCanceled:
		return true
	default:
		return false
	}
}

// Order holds the payment-relevant view of an order.
type Order struct {
	id           uuid.UUID
	number       string
	email        string
	userID       *uuid.UUID
	total        valueobjects.Money
	paymentTotal valueobjects.Money
	state        OrderState
	payments     []*Payment

	// gatewayErrorNote is set when checkout is configured to tolerate a
	// gateway failure instead of hard-failing.
	gatewayErrorNote string

	createdAt time.Time
	updatedAt time.Time
}

// NewOrder creates an order in the payment step with nothing paid yet.
func NewOrder(number, email string, userID *uuid.UUID, total valueobjects.Money) (*Order, error) {
	if number == "" {
		return nil, errors.ValidationError{Field: "number", Message: "is required"}
	}

	now := time.Now()
	return &Order{
		id:           uuid.New(),
		number:       number,
		email:        email,
		userID:       userID,
		total:        total,
		paymentTotal: valueobjects.Zero(),
		state:        OrderStatePayment,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructOrder rehydrates an order (without payments) from storage.
// Payments are attached separately by the repository.
func ReconstructOrder(
	id uuid.UUID,
	number, email string,
	userID *uuid.UUID,
	total, paymentTotal valueobjects.Money,
	state OrderState,
	gatewayErrorNote string,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:               id,
		number:           number,
		email:            email,
		userID:           userID,
		total:            total,
		paymentTotal:     paymentTotal,
		state:            state,
		gatewayErrorNote: gatewayErrorNote,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (o *Order) ID() uuid.UUID                    { return o.id }
func (o *Order) Number() string                   { return o.number }
func (o *Order) Email() string                    { return o.email }
func (o *Order) UserID() *uuid.UUID               { return o.userID }
func (o *Order) Total() valueobjects.Money        { return o.total }
func (o *Order) PaymentTotal() valueobjects.Money { return o.paymentTotal }
func (o *Order) State() OrderState                { return o.state }
func (o *Order) Payments() []*Payment             { return o.payments }
func (o *Order) GatewayErrorNote() string         { return o.gatewayErrorNote }
func (o *Order) CreatedAt() time.Time             { return o.createdAt }
func (o *Order) UpdatedAt() time.Time             { return o.updatedAt }

// RemainingTotal is what is still owed on the order.
func (o *Order) RemainingTotal() valueobjects.Money {
	remaining, err := o.total.Subtract(o.paymentTotal)
	if err != nil {
		// Overpaid order: nothing remains.
		return valueobjects.Zero()
	}
	return remaining
}

// IsComplete returns true once the order has been placed.
func (o *Order) IsComplete() bool { return o.state == OrderStateComplete }

// IsCanceled returns true for canceled orders.
func (o *Order) IsCanceled() bool { return o.state == OrderStateCanceled }

// AttachPayment adds a payment to the order's collection.
func (o *Order) AttachPayment(p *Payment) {
	o.payments = append(o.payments, p)
	o.updatedAt = time.Now()
}

// PaymentsInState returns the order's payments currently in the given state,
// preserving creation order.
func (o *Order) PaymentsInState(state PaymentState) []*Payment {
	var out []*Payment
	for _, p := range o.payments {
		if p.State() == state {
			out = append(out, p)
		}
	}
	return out
}

// WalletPayments returns the wallet-method payments on the order.
func (o *Order) WalletPayments() []*Payment {
	var out []*Payment
	for _, p := range o.payments {
		if p.IsWallet() {
			out = append(out, p)
		}
	}
	return out
}

// HasUnprocessedPayments reports whether anything is still waiting to be
// processed: a checkout-state payment, or a wallet payment whose amount still
// fits within the remaining total.
func (o *Order) HasUnprocessedPayments() bool {
	if len(o.PaymentsInState(PaymentStateCheckout)) > 0 {
		return true
	}
	wallets := o.WalletPayments()
	if len(wallets) == 0 {
		return false
	}
	last := wallets[len(wallets)-1]
	return last.Amount().LessThanOrEqual(o.RemainingTotal())
}

// OtherThanWalletPaymentRequired reports whether the user's balance alone
// cannot settle the order.
func (o *Order) OtherThanWalletPaymentRequired(userBalance valueobjects.Money) bool {
	return o.RemainingTotal().GreaterThan(userBalance)
}

// InvalidateOldPayments marks other checkout-state payments invalid when a
// new non-wallet payment supersedes them. A new wallet payment invalidates
// nothing; the wallet coexists with the instrument paying the remainder.
func (o *Order) InvalidateOldPayments(current *Payment) error {
	if current.IsWallet() {
		return nil
	}
	for _, p := range o.PaymentsInState(PaymentStateCheckout) {
		if p.ID() == current.ID() {
			continue
		}
		if err := p.Invalidate(); err != nil {
			return err
		}
	}
	o.updatedAt = time.Now()
	return nil
}

// AddToPaymentTotal accumulates a captured payment into the paid total.
func (o *Order) AddToPaymentTotal(amount valueobjects.Money) {
	o.paymentTotal = o.paymentTotal.Add(amount)
	o.updatedAt = time.Now()
}

// MarkComplete transitions the order to complete.
func (o *Order) MarkComplete() error {
	if o.state == OrderStateComplete || o.state == OrderStateCanceled {
		return errors.ErrInvalidStateTransition
	}
	o.state = OrderStateComplete
	o.updatedAt = time.Now()
	return nil
}

// MarkCanceled transitions the order to canceled.
func (o *Order) MarkCanceled() error {
	if o.state == OrderStateCanceled {
		return errors.ErrInvalidStateTransition
	}
	o.state = OrderStateCanceled
	o.updatedAt = time.Now()
	return nil
}

// AnnotateGatewayError records a tolerated gateway failure on the order.
func (o *Order) AnnotateGatewayError(message string) {
	o.gatewayErrorNote = message
	o.updatedAt = time.Now()
}
