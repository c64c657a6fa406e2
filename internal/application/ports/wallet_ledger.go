// Package ports - WalletLedger is the internal surface the payment lifecycle
// uses to move store-credit funds.
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// WalletLedger writes the ledger entries the payment state machine implies.
// Both calls are atomic: the entry and the user's new balance commit together.
type WalletLedger interface {
	// ConsumeFunds debits the user's balance when a wallet payment completes.
	// Returns the written entry so callers can report the resulting balance.
	ConsumeFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error)

	// ReleaseFunds credits funds back when a completed wallet payment is
	// voided or refunded.
	ReleaseFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error)
}
