// Package ports - BalanceCache is the read-side cache for wallet balances.
// The database row stays authoritative; the cache only serves balance reads
// and is invalidated on every ledger write.
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// BalanceCache caches store-credit totals per user.
type BalanceCache interface {
	// Get returns the cached balance and whether it was present.
	// A cache error should degrade to a miss, not fail the read.
	Get(ctx context.Context, userID uuid.UUID) (valueobjects.Money, bool, error)

	// Set stores a balance.
	Set(ctx context.Context, userID uuid.UUID, balance valueobjects.Money) error

	// Invalidate drops a user's cached balance. Called after every ledger
	// entry so stale totals are never served.
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
