package checkout

import (
	"context"
	goerrors "errors"
	"testing"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/domain/entities"
	domainErrors "github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

func walletItem() dtos.PaymentLineItem {
	return dtos.PaymentLineItem{MethodKind: entities.MethodKindWallet}
}

func checkItem() dtos.PaymentLineItem {
	return dtos.PaymentLineItem{MethodKind: entities.MethodKindCheck}
}

func TestBuildPayments_WalletAndCheckSplit(t *testing.T) {
	// remaining 1000, balance 500, [wallet, check] -> wallet 500 + check 500
	ctx := context.Background()
	user := testUser("500.00")
	userID := user.ID()
	order := testOrder("1000.00", &userID)
	uc := NewBuildPaymentsUseCase(newMemOrderRepo(order), newMemUserRepo(user))

	result, err := uc.Execute(ctx, dtos.BuildPaymentsCommand{
		OrderID: order.ID(),
		UserID:  &userID,
		Items:   []dtos.PaymentLineItem{walletItem(), checkItem()},
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	if result[0].MethodKind != entities.MethodKindWallet || !result[0].Amount.Equals(valueobjects.MustMoney("500.00")) {
		t.Errorf("Unexpected wallet item: %+v", result[0])
	}
	if result[1].MethodKind != entities.MethodKindCheck || !result[1].Amount.Equals(valueobjects.MustMoney("500.00")) {
		t.Errorf("Unexpected check item: %+v", result[1])
	}
}

func TestBuildPayments_WalletCoversAndDropsOthers(t *testing.T) {
	// remaining 300, balance 500, [wallet, check] -> [wallet(300)]
	ctx := context.Background()
	user := testUser("500.00")
	userID := user.ID()
	order := testOrder("300.00", &userID)
	uc := NewBuildPaymentsUseCase(newMemOrderRepo(order), newMemUserRepo(user))

	result, err := uc.Execute(ctx, dtos.BuildPaymentsCommand{
		OrderID: order.ID(),
		UserID:  &userID,
		Items:   []dtos.PaymentLineItem{walletItem(), checkItem()},
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected wallet only, got %d items", len(result))
	}
	if !result[0].Amount.Equals(valueobjects.MustMoney("300.00")) {
		t.Errorf("Expected wallet 300.00, got %s", result[0].Amount)
	}
}

func TestBuildPayments_WalletOnlyInsufficient(t *testing.T) {
	// remaining 1000, balance 500, [wallet] -> InsufficientWalletFunds
	ctx := context.Background()
	user := testUser("500.00")
	userID := user.ID()
	order := testOrder("1000.00", &userID)
	uc := NewBuildPaymentsUseCase(newMemOrderRepo(order), newMemUserRepo(user))

	_, err := uc.Execute(ctx, dtos.BuildPaymentsCommand{
		OrderID: order.ID(),
		UserID:  &userID,
		Items:   []dtos.PaymentLineItem{walletItem()},
	})

	if !goerrors.Is(err, domainErrors.ErrInsufficientWalletFunds) {
		t.Fatalf("Expected insufficient-funds error, got: %v", err)
	}
}

func TestBuildPayments_GuestWalletRejected(t *testing.T) {
	ctx := context.Background()
	order := testOrder("100.00", nil)
	uc := NewBuildPaymentsUseCase(newMemOrderRepo(order), newMemUserRepo())

	_, err := uc.Execute(ctx, dtos.BuildPaymentsCommand{
		OrderID: order.ID(),
		Items:   []dtos.PaymentLineItem{walletItem()},
	})

	if !goerrors.Is(err, domainErrors.ErrGuestWallet) {
		t.Fatalf("Expected guest-wallet error, got: %v", err)
	}
}

func TestBuildPayments_NoWalletAssignsFullRemaining(t *testing.T) {
	ctx := context.Background()
	order := testOrder("250.00", nil)
	uc := NewBuildPaymentsUseCase(newMemOrderRepo(order), newMemUserRepo())

	result, err := uc.Execute(ctx, dtos.BuildPaymentsCommand{
		OrderID: order.ID(),
		Items:   []dtos.PaymentLineItem{checkItem(), checkItem()},
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	if !result[0].Amount.Equals(valueobjects.MustMoney("250.00")) {
		t.Errorf("Expected first item to carry 250.00, got %s", result[0].Amount)
	}
}

func TestBuildPayments_RespectsPaidTotal(t *testing.T) {
	ctx := context.Background()
	user := testUser("500.00")
	userID := user.ID()
	order := testOrder("1000.00", &userID)
	order.AddToPaymentTotal(valueobjects.MustMoney("600.00"))
	uc := NewBuildPaymentsUseCase(newMemOrderRepo(order), newMemUserRepo(user))

	result, err := uc.Execute(ctx, dtos.BuildPaymentsCommand{
		OrderID: order.ID(),
		UserID:  &userID,
		Items:   []dtos.PaymentLineItem{walletItem(), checkItem()},
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// remaining is 400, balance 500: wallet covers it alone.
	if len(result) != 1 || !result[0].Amount.Equals(valueobjects.MustMoney("400.00")) {
		t.Errorf("Expected [wallet(400.00)], got %+v", result)
	}
}

func TestValidatePayments(t *testing.T) {
	ctx := context.Background()
	user := testUser("500.00")
	userID := user.ID()

	tests := []struct {
		name      string
		total     string
		userID    *uuid.UUID
		items     []dtos.PaymentLineItem
		wantError error
	}{
		{"no wallet item passes", "1000.00", nil, []dtos.PaymentLineItem{checkItem()}, nil},
		{"guest with wallet", "1000.00", nil, []dtos.PaymentLineItem{walletItem()}, domainErrors.ErrGuestWallet},
		{"wallet plus other passes", "1000.00", &userID, []dtos.PaymentLineItem{walletItem(), checkItem()}, nil},
		{"wallet only, cannot cover", "1000.00", &userID, []dtos.PaymentLineItem{walletItem()}, domainErrors.ErrInsufficientWalletFunds},
		{"wallet only, exactly equal still fails", "500.00", &userID, []dtos.PaymentLineItem{walletItem()}, domainErrors.ErrInsufficientWalletFunds},
		{"wallet only, covered", "499.99", &userID, []dtos.PaymentLineItem{walletItem()}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder(tt.total, tt.userID)
			uc := NewValidatePaymentsUseCase(newMemOrderRepo(order), newMemUserRepo(user))

			err := uc.Execute(ctx, dtos.ValidatePaymentsCommand{
				OrderID: order.ID(),
				UserID:  tt.userID,
				Items:   tt.items,
			})

			if tt.wantError == nil && err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if tt.wantError != nil && !goerrors.Is(err, tt.wantError) {
				t.Fatalf("Expected %v, got: %v", tt.wantError, err)
			}
		})
	}
}
