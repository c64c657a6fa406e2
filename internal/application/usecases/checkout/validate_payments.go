package checkout

import (
	"context"
	"fmt"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/errors"
)

// ValidatePaymentsUseCase is the gate run before the split: it rejects
// submissions the split could never make whole.
type ValidatePaymentsUseCase struct {
	orderRepo ports.OrderRepository
	userRepo  ports.UserRepository
}

// NewValidatePaymentsUseCase creates the pre-split gate.
func NewValidatePaymentsUseCase(orderRepo ports.OrderRepository, userRepo ports.UserRepository) *ValidatePaymentsUseCase {
	return &ValidatePaymentsUseCase{orderRepo: orderRepo, userRepo: userRepo}
}

// Execute validates the submission.
//
// Rules:
// - a guest selecting the wallet fails with ErrGuestWallet
// - a wallet-only submission where the remaining total reaches or exceeds
//   the user's balance fails with ErrInsufficientWalletFunds
func (uc *ValidatePaymentsUseCase) Execute(ctx context.Context, cmd dtos.ValidatePaymentsCommand) error {
	walletItems, otherItems := partition(cmd.Items)
	if len(walletItems) == 0 {
		return nil
	}

	if cmd.UserID == nil {
		return errors.ErrGuestWallet
	}

	if len(otherItems) > 0 {
		return nil
	}

	order, err := uc.orderRepo.FindByID(ctx, cmd.OrderID)
	if err != nil {
		if errors.IsNotFound(err) {
			return fmt.Errorf("%w: order %s", errors.ErrEntityNotFound, cmd.OrderID)
		}
		return fmt.Errorf("failed to load order: %w", err)
	}

	user, err := uc.userRepo.FindByID(ctx, *cmd.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return fmt.Errorf("%w: user %s", errors.ErrEntityNotFound, *cmd.UserID)
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if order.RemainingTotal().GreaterThanOrEqual(user.StoreCreditsTotal()) {
		return errors.ErrInsufficientWalletFunds
	}

	return nil
}
