package payment

import (
	"context"
	goerrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/entities"
	domainErrors "github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/events"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

func TestProcessorComplete_WalletDebitsLedger(t *testing.T) {
	// Arrange
	ctx := context.Background()
	userID := uuid.New()
	order := testOrder("100.00", &userID)
	p := testWalletPayment(order, userID, "60.00", "80.00")

	ledger := newFakeLedger("80.00")
	publisher := &recordingPublisher{}
	paymentRepo := newMemPaymentRepo(p)
	pr := newTestProcessor(ledger, &fakeGateway{}, paymentRepo, publisher)

	// Act
	err := pr.Complete(ctx, order, p)

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !p.IsCompleted() {
		t.Errorf("Expected completed payment, got %s", p.State())
	}
	if len(ledger.consumed) != 1 {
		t.Fatalf("Expected 1 debit, got %d", len(ledger.consumed))
	}
	call := ledger.consumed[0]
	if call.userID != userID || !call.amount.Equals(valueobjects.MustMoney("60.00")) {
		t.Errorf("Unexpected debit call: %+v", call)
	}
	if !strings.Contains(call.reason, order.Number()) {
		t.Errorf("Expected reason to reference order %s, got %q", order.Number(), call.reason)
	}
	if call.reason != "Payment consumed of order R100000001" {
		t.Errorf("Unexpected reason: %q", call.reason)
	}
	if !order.PaymentTotal().Equals(valueobjects.MustMoney("60.00")) {
		t.Errorf("Expected payment total 60.00, got %s", order.PaymentTotal())
	}
	if got := publisher.byType(events.EventTypePaymentCompleted); len(got) != 1 {
		t.Errorf("Expected 1 payment.completed event, got %d", len(got))
	}
	if got := publisher.byType(events.EventTypeWalletDebited); len(got) != 1 {
		t.Errorf("Expected 1 wallet.debited event, got %d", len(got))
	}
}

func TestProcessorComplete_WalletInsufficientFundsAborts(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	order := testOrder("100.00", &userID)
	p := testWalletPayment(order, userID, "60.00", "80.00")

	// Balance dropped to 10 between build and processing.
	ledger := newFakeLedger("10.00")
	pr := newTestProcessor(ledger, &fakeGateway{}, newMemPaymentRepo(p), &recordingPublisher{})

	err := pr.Complete(ctx, order, p)

	if !goerrors.Is(err, domainErrors.ErrBalanceBelowZero) {
		t.Fatalf("Expected balance-below-zero error, got: %v", err)
	}
	if !order.PaymentTotal().IsZero() {
		t.Errorf("Expected untouched payment total, got %s", order.PaymentTotal())
	}
}

func TestProcessorComplete_CardCapturesThroughGateway(t *testing.T) {
	ctx := context.Background()
	order := testOrder("100.00", nil)
	p := testCardPayment(order, "100.00")

	captured := false
	gateway := &fakeGateway{
		captureFunc: func(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
			captured = true
			return entities.MethodResponse{Success: true}, nil
		},
	}
	ledger := newFakeLedger("0.00")
	pr := newTestProcessor(ledger, gateway, newMemPaymentRepo(p), &recordingPublisher{})

	err := pr.Complete(ctx, order, p)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !captured {
		t.Error("Expected gateway capture")
	}
	if !p.IsCompleted() {
		t.Errorf("Expected completed payment, got %s", p.State())
	}
	if len(ledger.consumed) != 0 {
		t.Errorf("Expected no ledger activity for a card payment, got %d debits", len(ledger.consumed))
	}
}

func TestProcessorComplete_GatewayFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	order := testOrder("100.00", nil)
	p := testCardPayment(order, "100.00")

	gateway := &fakeGateway{
		captureFunc: func(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
			return entities.MethodResponse{}, domainErrors.NewGatewayError("card_declined", "declined", nil)
		},
	}
	paymentRepo := newMemPaymentRepo(p)
	pr := newTestProcessor(newFakeLedger("0.00"), gateway, paymentRepo, &recordingPublisher{})

	err := pr.Complete(ctx, order, p)

	if !domainErrors.IsGatewayError(err) {
		t.Fatalf("Expected gateway error, got: %v", err)
	}
	if p.State() != entities.PaymentStateFailed {
		t.Errorf("Expected failed payment, got %s", p.State())
	}
	if !order.PaymentTotal().IsZero() {
		t.Errorf("Expected untouched payment total, got %s", order.PaymentTotal())
	}
	if paymentRepo.updates != 1 {
		t.Errorf("Expected failed state persisted once, got %d updates", paymentRepo.updates)
	}
}

func TestProcessorComplete_GatewayDeclineIsGatewayError(t *testing.T) {
	ctx := context.Background()
	order := testOrder("100.00", nil)
	p := testCardPayment(order, "100.00")

	gateway := &fakeGateway{
		captureFunc: func(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
			return entities.MethodResponse{Success: false, Message: "insufficient card funds"}, nil
		},
	}
	pr := newTestProcessor(newFakeLedger("0.00"), gateway, newMemPaymentRepo(p), &recordingPublisher{})

	err := pr.Complete(ctx, order, p)

	if !domainErrors.IsGatewayError(err) {
		t.Fatalf("Expected gateway error, got: %v", err)
	}
}

func TestProcessorVoid_CompletedWalletReleasesFunds(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	order := testOrder("100.00", &userID)
	p := testWalletPayment(order, userID, "60.00", "80.00")

	ledger := newFakeLedger("80.00")
	publisher := &recordingPublisher{}
	pr := newTestProcessor(ledger, &fakeGateway{}, newMemPaymentRepo(p), publisher)

	if err := pr.Complete(ctx, order, p); err != nil {
		t.Fatalf("complete: %v", err)
	}

	err := pr.Void(ctx, p)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.State() != entities.PaymentStateVoid {
		t.Errorf("Expected void payment, got %s", p.State())
	}
	if len(ledger.released) != 1 {
		t.Fatalf("Expected 1 credit, got %d", len(ledger.released))
	}
	if ledger.released[0].reason != "Payment released of order R100000001" {
		t.Errorf("Unexpected reason: %q", ledger.released[0].reason)
	}
	if !ledger.balance.Equals(valueobjects.MustMoney("80.00")) {
		t.Errorf("Expected balance restored to 80.00, got %s", ledger.balance)
	}
	if got := publisher.byType(events.EventTypeWalletCredited); len(got) != 1 {
		t.Errorf("Expected 1 wallet.credited event, got %d", len(got))
	}
	if got := publisher.byType(events.EventTypePaymentVoided); len(got) != 1 {
		t.Errorf("Expected 1 payment.voided event, got %d", len(got))
	}
}

func TestProcessorVoid_UncompletedWalletSkipsLedger(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	order := testOrder("100.00", &userID)
	p := testWalletPayment(order, userID, "60.00", "80.00")

	ledger := newFakeLedger("80.00")
	pr := newTestProcessor(ledger, &fakeGateway{}, newMemPaymentRepo(p), &recordingPublisher{})

	err := pr.Void(ctx, p)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.State() != entities.PaymentStateVoid {
		t.Errorf("Expected void payment, got %s", p.State())
	}
	if len(ledger.released) != 0 {
		t.Errorf("Expected no credit for a never-captured payment, got %d", len(ledger.released))
	}
}

func TestProcessorVoid_CompletedWalletWithoutUserRejected(t *testing.T) {
	// A stored wallet payment can carry a NULL user. Voiding one that had
	// captured funds owes a reversing credit with nowhere to post it, so
	// the void is refused before any state changes.
	ctx := context.Background()
	now := time.Now()
	p := entities.ReconstructPayment(
		uuid.New(), uuid.New(), "R100000001", nil,
		valueobjects.MustMoney("60.00"), entities.MethodKindWallet,
		entities.PaymentStateCompleted, now, now,
	)

	ledger := newFakeLedger("80.00")
	pr := newTestProcessor(ledger, &fakeGateway{}, newMemPaymentRepo(p), &recordingPublisher{})

	err := pr.Void(ctx, p)

	if !goerrors.Is(err, domainErrors.ErrWalletNotLinked) {
		t.Fatalf("Expected wallet-not-linked error, got: %v", err)
	}
	if p.State() != entities.PaymentStateCompleted {
		t.Errorf("Expected payment untouched, got %s", p.State())
	}
	if len(ledger.released) != 0 {
		t.Errorf("Expected no credit attempt, got %d", len(ledger.released))
	}
}

func TestProcessorVoid_AlreadyVoidRejected(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	order := testOrder("100.00", &userID)
	p := testWalletPayment(order, userID, "60.00", "80.00")

	pr := newTestProcessor(newFakeLedger("80.00"), &fakeGateway{}, newMemPaymentRepo(p), &recordingPublisher{})

	if err := pr.Void(ctx, p); err != nil {
		t.Fatalf("first void: %v", err)
	}

	err := pr.Void(ctx, p)
	if !goerrors.Is(err, domainErrors.ErrPaymentNotVoidable) {
		t.Fatalf("Expected not-voidable error, got: %v", err)
	}
}

func TestProcessorVoid_CardGoesThroughGateway(t *testing.T) {
	ctx := context.Background()
	order := testOrder("100.00", nil)
	p := testCardPayment(order, "100.00")

	voided := false
	gateway := &fakeGateway{
		voidFunc: func(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
			voided = true
			return entities.MethodResponse{Success: true}, nil
		},
	}
	pr := newTestProcessor(newFakeLedger("0.00"), gateway, newMemPaymentRepo(p), &recordingPublisher{})

	if err := pr.Void(ctx, p); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !voided {
		t.Error("Expected gateway void")
	}
}
