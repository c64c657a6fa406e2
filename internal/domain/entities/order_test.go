package entities

import (
	"testing"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

func newTestOrder(t *testing.T, total string, userID *uuid.UUID) *Order {
	t.Helper()
	o, err := NewOrder("R200000001", "buyer@example.com", userID, valueobjects.MustMoney(total))
	if err != nil {
		t.Fatalf("NewOrder() error = %v", err)
	}
	return o
}

func attachPayment(t *testing.T, o *Order, kind MethodKind, amount string, userID *uuid.UUID) *Payment {
	t.Helper()
	p, err := NewPayment(NewPaymentParams{
		OrderID:        o.ID(),
		OrderNumber:    o.Number(),
		UserID:         userID,
		Amount:         valueobjects.MustMoney(amount),
		MethodKind:     kind,
		RemainingTotal: o.RemainingTotal(),
		UserBalance:    valueobjects.MustMoney("100000"),
	})
	if err != nil {
		t.Fatalf("NewPayment() error = %v", err)
	}
	o.AttachPayment(p)
	return p
}

func TestOrder_RemainingTotal(t *testing.T) {
	o := newTestOrder(t, "1000", nil)

	if got := o.RemainingTotal(); !got.Equals(valueobjects.MustMoney("1000")) {
		t.Errorf("RemainingTotal() = %s, want 1000", got)
	}

	o.AddToPaymentTotal(valueobjects.MustMoney("400"))
	if got := o.RemainingTotal(); !got.Equals(valueobjects.MustMoney("600")) {
		t.Errorf("RemainingTotal() = %s, want 600", got)
	}

	// Overpayment clamps to zero rather than going negative.
	o.AddToPaymentTotal(valueobjects.MustMoney("700"))
	if got := o.RemainingTotal(); !got.IsZero() {
		t.Errorf("RemainingTotal() = %s, want 0", got)
	}
}

func TestOrder_PaymentPartitioning(t *testing.T) {
	userID := uuid.New()
	o := newTestOrder(t, "1000", &userID)

	wallet := attachPayment(t, o, MethodKindWallet, "300", &userID)
	check := attachPayment(t, o, MethodKindCheck, "700", nil)

	wallets := o.WalletPayments()
	if len(wallets) != 1 || wallets[0].ID() != wallet.ID() {
		t.Errorf("WalletPayments() = %v, want just the wallet payment", wallets)
	}

	inCheckout := o.PaymentsInState(PaymentStateCheckout)
	if len(inCheckout) != 2 {
		t.Fatalf("PaymentsInState(checkout) = %d payments, want 2", len(inCheckout))
	}
	// Relative order preserved.
	if inCheckout[0].ID() != wallet.ID() || inCheckout[1].ID() != check.ID() {
		t.Error("PaymentsInState() should preserve creation order")
	}
}

// TestOrder_InvalidateOldPayments: a new non-wallet payment supersedes other
// checkout payments; a new wallet payment leaves them alone.
func TestOrder_InvalidateOldPayments(t *testing.T) {
	userID := uuid.New()

	t.Run("non-wallet supersedes", func(t *testing.T) {
		o := newTestOrder(t, "1000", &userID)
		old := attachPayment(t, o, MethodKindCard, "1000", nil)
		wallet := attachPayment(t, o, MethodKindWallet, "300", &userID)
		fresh := attachPayment(t, o, MethodKindCheck, "700", nil)

		if err := o.InvalidateOldPayments(fresh); err != nil {
			t.Fatalf("InvalidateOldPayments() error = %v", err)
		}
		if old.State() != PaymentStateInvalid {
			t.Errorf("old card payment state = %s, want invalid", old.State())
		}
		if wallet.State() != PaymentStateInvalid {
			t.Errorf("old wallet payment state = %s, want invalid", wallet.State())
		}
		if fresh.State() != PaymentStateCheckout {
			t.Errorf("new payment state = %s, want checkout", fresh.State())
		}
	})

	t.Run("wallet leaves others alone", func(t *testing.T) {
		o := newTestOrder(t, "1000", &userID)
		check := attachPayment(t, o, MethodKindCheck, "700", nil)
		wallet := attachPayment(t, o, MethodKindWallet, "300", &userID)

		if err := o.InvalidateOldPayments(wallet); err != nil {
			t.Fatalf("InvalidateOldPayments() error = %v", err)
		}
		if check.State() != PaymentStateCheckout {
			t.Errorf("check payment state = %s, want checkout", check.State())
		}
	})
}

func TestOrder_HasUnprocessedPayments(t *testing.T) {
	userID := uuid.New()

	o := newTestOrder(t, "1000", &userID)
	if o.HasUnprocessedPayments() {
		t.Error("order with no payments has nothing to process")
	}

	wallet := attachPayment(t, o, MethodKindWallet, "300", &userID)
	if !o.HasUnprocessedPayments() {
		t.Error("checkout-state payment should count as unprocessed")
	}

	if err := wallet.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	// A completed wallet payment still within the remaining total counts.
	if !o.HasUnprocessedPayments() {
		t.Error("wallet payment within remaining total should count")
	}

	o.AddToPaymentTotal(valueobjects.MustMoney("800"))
	if o.HasUnprocessedPayments() {
		t.Error("wallet amount above remaining total should not count")
	}
}

func TestOrder_OtherThanWalletPaymentRequired(t *testing.T) {
	o := newTestOrder(t, "1000", nil)

	if !o.OtherThanWalletPaymentRequired(valueobjects.MustMoney("500")) {
		t.Error("a 500 balance cannot cover a 1000 order")
	}
	if o.OtherThanWalletPaymentRequired(valueobjects.MustMoney("1000")) {
		t.Error("a 1000 balance covers a 1000 order")
	}
}

func TestOrder_StateTransitions(t *testing.T) {
	o := newTestOrder(t, "100", nil)

	if err := o.MarkComplete(); err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}
	if err := o.MarkComplete(); err == nil {
		t.Error("completing twice should fail")
	}
	if err := o.MarkCanceled(); err != nil {
		t.Fatalf("MarkCanceled() error = %v", err)
	}
	if err := o.MarkCanceled(); err == nil {
		t.Error("canceling twice should fail")
	}
}

func TestOrder_AnnotateGatewayError(t *testing.T) {
	o := newTestOrder(t, "100", nil)
	o.AnnotateGatewayError("card declined")
	if o.GatewayErrorNote() != "card declined" {
		t.Errorf("GatewayErrorNote() = %q, want %q", o.GatewayErrorNote(), "card declined")
	}
}
