// Package checkout contains the reconciliation use cases: splitting an
// order's due amount between wallet funds and other instruments, creating
// payments and driving them through processing.
package checkout

import (
	"context"
	"fmt"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// BuildPaymentsUseCase computes the wallet split for submitted payment line
// items. It assigns amounts; it does not create payments.
type BuildPaymentsUseCase struct {
	orderRepo ports.OrderRepository
	userRepo  ports.UserRepository
}

// NewBuildPaymentsUseCase creates the split calculator.
func NewBuildPaymentsUseCase(orderRepo ports.OrderRepository, userRepo ports.UserRepository) *BuildPaymentsUseCase {
	return &BuildPaymentsUseCase{orderRepo: orderRepo, userRepo: userRepo}
}

// Execute splits the order's remaining total across the submitted items.
//
// Rules:
// - a guest submitting a wallet item fails with ErrGuestWallet
// - the wallet item gets min(remaining total, user balance)
// - if the wallet covers everything, the other items are dropped
// - otherwise the first other item gets the rest; wallet-only submissions
//   that cannot cover the order fail with ErrInsufficientWalletFunds
// - with no wallet item, the first item gets the full remaining total
func (uc *BuildPaymentsUseCase) Execute(ctx context.Context, cmd dtos.BuildPaymentsCommand) ([]dtos.PaymentLineItem, error) {
	order, err := uc.orderRepo.FindByID(ctx, cmd.OrderID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order %s", errors.ErrEntityNotFound, cmd.OrderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	remaining := order.RemainingTotal()

	walletItems, otherItems := partition(cmd.Items)

	if len(walletItems) == 0 {
		if len(otherItems) > 0 {
			otherItems[0].Amount = remaining
		}
		return otherItems, nil
	}

	if cmd.UserID == nil {
		return nil, errors.ErrGuestWallet
	}

	user, err := uc.userRepo.FindByID(ctx, *cmd.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", errors.ErrEntityNotFound, *cmd.UserID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	walletAmount := valueobjects.Min(remaining, user.StoreCreditsTotal())
	wallet := walletItems[0]
	wallet.Amount = walletAmount

	if walletAmount.GreaterThanOrEqual(remaining) {
		// Wallet covers the order; nothing else is needed.
		return []dtos.PaymentLineItem{wallet}, nil
	}

	if len(otherItems) == 0 {
		return nil, errors.ErrInsufficientWalletFunds
	}

	rest, err := remaining.Subtract(walletAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute remainder: %w", err)
	}
	otherItems[0].Amount = rest

	return append([]dtos.PaymentLineItem{wallet}, otherItems...), nil
}

// partition splits items into wallet and non-wallet, preserving order.
func partition(items []dtos.PaymentLineItem) (wallet, other []dtos.PaymentLineItem) {
	for _, item := range items {
		if item.MethodKind == entities.MethodKindWallet {
			wallet = append(wallet, item)
		} else {
			other = append(other, item)
		}
	}
	return wallet, other
}
