// Package entities - Payment is one payment instrument applied to an order,
// with a small state machine driving the ledger hooks.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// PaymentState is the lifecycle state of a payment.
type PaymentState string

const (
	PaymentStateCheckout   PaymentState = "checkout"   // built during checkout, not yet processed
	PaymentStatePending    PaymentState = "pending"    // accepted, awaiting processing
	PaymentStateProcessing PaymentState = "processing" // being captured right now
	PaymentStateCompleted  PaymentState = "completed"  // funds captured
	PaymentStateVoid       PaymentState = "void"       // reversed before/after completion
	PaymentStateInvalid    PaymentState = "invalid"    // superseded by another payment
	PaymentStateFailed     PaymentState = "failed"     // processor rejected it
)

// IsValid checks if the payment state is valid.
func (s PaymentState) IsValid() bool {
	switch s {
	case PaymentStateCheckout, PaymentStatePending, PaymentStateProcessing,
		PaymentStateCompleted, PaymentStateVoid, PaymentStateInvalid, PaymentStateFailed:
		return true
	default:
		return false
	}
}

// Payment applies an amount of one payment method to an order.
// Wallet payments additionally require an identifiable user and an amount
// within min(order remaining total, user's store-credit balance).
type Payment struct {
	id          uuid.UUID
	orderID     uuid.UUID
	orderNumber string
	userID      *uuid.UUID // the paying user; required for wallet payments
	amount      valueobjects.Money
	methodKind  MethodKind
	state       PaymentState

	createdAt time.Time
	updatedAt time.Time
}

// NewPaymentParams carries the order-side context a payment is validated
// against at creation time.
type NewPaymentParams struct {
	OrderID        uuid.UUID
	OrderNumber    string
	UserID         *uuid.UUID
	Amount         valueobjects.Money
	MethodKind     MethodKind
	RemainingTotal valueobjects.Money
	// UserBalance is the user's store-credit total; only consulted for
	// wallet payments.
	UserBalance valueobjects.Money
}

// NewPayment validates and creates a payment in the checkout state.
//
// Rules:
// - wallet payments must be linked to a user (ErrWalletNotLinked)
// - wallet amount <= min(remaining total, user's store-credit balance)
// - non-wallet amount <= remaining total
func NewPayment(params NewPaymentParams) (*Payment, error) {
	if params.OrderID == uuid.Nil {
		return nil, errors.ValidationError{Field: "order_id", Message: "is required"}
	}
	if !params.MethodKind.IsValid() {
		return nil, errors.ValidationError{Field: "payment_method", Message: "is not a known method"}
	}

	if params.MethodKind == MethodKindWallet {
		if params.UserID == nil || *params.UserID == uuid.Nil {
			return nil, errors.ErrWalletNotLinked
		}
		ceiling := valueobjects.Min(params.RemainingTotal, params.UserBalance)
		if params.Amount.GreaterThan(ceiling) {
			return nil, errors.ValidationError{
				Field:   "amount",
				Message: "must be less than or equal to the wallet balance and the remaining order total",
			}
		}
	} else if params.Amount.GreaterThan(params.RemainingTotal) {
		return nil, errors.ValidationError{
			Field:   "amount",
			Message: "must be less than or equal to the remaining order total",
		}
	}

	now := time.Now()
	return &Payment{
		id:          uuid.New(),
		orderID:     params.OrderID,
		orderNumber: params.OrderNumber,
		userID:      params.UserID,
		amount:      params.Amount,
		methodKind:  params.MethodKind,
		state:       PaymentStateCheckout,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructPayment rehydrates a payment from storage.
func ReconstructPayment(
	id, orderID uuid.UUID,
	orderNumber string,
	userID *uuid.UUID,
	amount valueobjects.Money,
	methodKind MethodKind,
	state PaymentState,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:          id,
		orderID:     orderID,
		orderNumber: orderNumber,
		userID:      userID,
		amount:      amount,
		methodKind:  methodKind,
		state:       state,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (p *Payment) ID() uuid.UUID              { return p.id }
func (p *Payment) OrderID() uuid.UUID         { return p.orderID }
func (p *Payment) OrderNumber() string        { return p.orderNumber }
func (p *Payment) UserID() *uuid.UUID         { return p.userID }
func (p *Payment) Amount() valueobjects.Money { return p.amount }
func (p *Payment) MethodKind() MethodKind     { return p.methodKind }
func (p *Payment) State() PaymentState        { return p.state }
func (p *Payment) CreatedAt() time.Time       { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time       { return p.updatedAt }

// IsWallet returns true for wallet-method payments.
func (p *Payment) IsWallet() bool {
	return p.methodKind == MethodKindWallet
}

// IsCompleted returns true once funds were captured.
func (p *Payment) IsCompleted() bool {
	return p.state == PaymentStateCompleted
}

// State machine transitions. Each transition validates the source state;
// the ledger hooks fire on the transitions into and out of completed.

// StartProcessing moves a checkout/pending payment into processing.
func (p *Payment) StartProcessing() error {
	if p.state != PaymentStateCheckout && p.state != PaymentStatePending {
		return errors.ErrInvalidStateTransition
	}
	p.setState(PaymentStateProcessing)
	return nil
}

// Complete marks the payment captured. Valid from checkout, pending or
// processing.
func (p *Payment) Complete() error {
	switch p.state {
	case PaymentStateCheckout, PaymentStatePending, PaymentStateProcessing:
		p.setState(PaymentStateCompleted)
		return nil
	default:
		return errors.ErrInvalidStateTransition
	}
}

// Void reverses the payment. Valid from any non-terminal-void state; voiding
// a completed wallet payment is what triggers the ledger credit reversal.
func (p *Payment) Void() error {
	if p.state == PaymentStateVoid {
		return errors.ErrInvalidStateTransition
	}
	p.setState(PaymentStateVoid)
	return nil
}

// Invalidate marks a checkout payment superseded by another instrument.
func (p *Payment) Invalidate() error {
	if p.state != PaymentStateCheckout && p.state != PaymentStatePending {
		return errors.ErrInvalidStateTransition
	}
	p.setState(PaymentStateInvalid)
	return nil
}

// Fail records a processor rejection.
func (p *Payment) Fail() error {
	if p.state != PaymentStateProcessing && p.state != PaymentStatePending && p.state != PaymentStateCheckout {
		return errors.ErrInvalidStateTransition
	}
	p.setState(PaymentStateFailed)
	return nil
}

func (p *Payment) setState(state PaymentState) {
	p.state = state
	p.updatedAt = time.Now()
}
