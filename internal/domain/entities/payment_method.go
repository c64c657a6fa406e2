// Package entities - PaymentMethod is the capability set every payment
// instrument exposes. The wallet is one variant among ordinary gateway-backed
// methods; it differs in needing no source and in settling against the
// store-credit ledger instead of an external processor.
package entities

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// MethodKind identifies a payment method variant. Resolved once when a
// payment is built, never by runtime type inspection.
type MethodKind string

const (
	MethodKindWallet MethodKind = "wallet"
	MethodKindCard   MethodKind = "card"
	MethodKindCheck  MethodKind = "check"
)

// IsValid checks if the method kind is known.
func (k MethodKind) IsValid() bool {
	switch k {
	case MethodKindWallet, MethodKindCard, MethodKindCheck:
		return true
	default:
		return false
	}
}

// MethodResponse is the processor-style result of a method action.
type MethodResponse struct {
	Success bool
	Message string
}

// PaymentMethod is the polymorphic capability set shared by all methods.
type PaymentMethod interface {
	Kind() MethodKind

	// SourceRequired reports whether the method needs a payment source
	// (card token, bank account). The wallet never does.
	SourceRequired() bool

	// CanVoid reports whether the payment may still be voided.
	CanVoid(p *Payment) bool

	// Void acknowledges a void. It does not touch the ledger itself; the
	// reversal entry is written by the lifecycle hook that observes the
	// state change.
	Void(ctx context.Context, p *Payment) (MethodResponse, error)

	// CanCredit reports whether a completed payment can be (partially)
	// refunded through this method.
	CanCredit(p *Payment) bool

	// Credit refunds amountCents (minor units) of a completed payment.
	Credit(ctx context.Context, p *Payment, amountCents int64) (MethodResponse, error)

	// Cancel acknowledges an order-level cancel for this method.
	Cancel(ctx context.Context, p *Payment) (MethodResponse, error)
}

// WalletRefunder is the slice of the ledger the wallet method needs for
// manual partial refunds: put funds back on a user's balance.
type WalletRefunder interface {
	ReleaseFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) error
}

// WalletMethod is the store-credit payment method.
//
// Behavior:
// - needs no source
// - voidable unless already void (void alone is terminal here)
// - creditable only while completed
// - Credit bypasses the payment state machine and writes the ledger credit
//   directly; used for partial manual refunds
type WalletMethod struct {
	ledger WalletRefunder
}

// NewWalletMethod creates the wallet method around the ledger's refund path.
func NewWalletMethod(ledger WalletRefunder) *WalletMethod {
	return &WalletMethod{ledger: ledger}
}

func (m *WalletMethod) Kind() MethodKind     { return MethodKindWallet }
func (m *WalletMethod) SourceRequired() bool { return false }

// CanVoid treats only the void state as terminal. An invalid payment can
// still be voided; this is the broader of the two policies that have shipped.
func (m *WalletMethod) CanVoid(p *Payment) bool {
	return p.State() != PaymentStateVoid
}

// Void reports success and leaves the ledger alone: the credit reversal is
// written by the completed→void lifecycle hook, not here.
func (m *WalletMethod) Void(ctx context.Context, p *Payment) (MethodResponse, error) {
	return MethodResponse{Success: true}, nil
}

// CanCredit allows refunds only against captured, non-zero payments.
func (m *WalletMethod) CanCredit(p *Payment) bool {
	return p.IsCompleted() && p.Amount().IsPositive()
}

// Credit converts minor units to Money and releases the funds back to the
// paying user's balance directly.
func (m *WalletMethod) Credit(ctx context.Context, p *Payment, amountCents int64) (MethodResponse, error) {
	if !m.CanCredit(p) {
		return MethodResponse{}, errors.ErrPaymentNotCreditable
	}
	if p.UserID() == nil {
		return MethodResponse{}, errors.ErrWalletNotLinked
	}

	amount, err := valueobjects.NewMoneyFromCents(amountCents)
	if err != nil {
		return MethodResponse{}, errors.ValidationError{Field: "amount", Message: err.Error()}
	}

	reason := fmt.Sprintf("Payment refunded of order %s", p.OrderNumber())
	if err := m.ledger.ReleaseFunds(ctx, *p.UserID(), amount, reason); err != nil {
		return MethodResponse{}, err
	}

	return MethodResponse{Success: true}, nil
}

// Cancel acknowledges the cancel; the per-payment void flow handles reversal.
func (m *WalletMethod) Cancel(ctx context.Context, p *Payment) (MethodResponse, error) {
	return MethodResponse{Success: true}, nil
}
