package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/errors"
)

// GetBalanceUseCase reads a user's store-credit total, cache first. The
// database row stays authoritative; the cache is repopulated on a miss and
// dropped by every ledger write.
type GetBalanceUseCase struct {
	userRepo ports.UserRepository
	cache    ports.BalanceCache
}

// NewGetBalanceUseCase creates the balance reader.
func NewGetBalanceUseCase(userRepo ports.UserRepository, cache ports.BalanceCache) *GetBalanceUseCase {
	return &GetBalanceUseCase{userRepo: userRepo, cache: cache}
}

// Execute returns the user's current balance.
func (uc *GetBalanceUseCase) Execute(ctx context.Context, userID uuid.UUID) (*dtos.BalanceDTO, error) {
	if balance, ok, err := uc.cache.Get(ctx, userID); err == nil && ok {
		dto := dtos.ToBalanceDTO(userID.String(), balance)
		return &dto, nil
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", errors.ErrEntityNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Best effort: a failed set just means the next read hits the database.
	_ = uc.cache.Set(ctx, userID, user.StoreCreditsTotal())

	dto := dtos.ToBalanceDTO(userID.String(), user.StoreCreditsTotal())
	return &dto, nil
}
