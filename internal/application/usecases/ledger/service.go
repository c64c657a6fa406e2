package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// Service adapts the entry writer to the WalletLedger port: the two
// system-internal fund movements the payment lifecycle performs. Both use the
// reserved payment modes end users can never set.
type Service struct {
	createEntry *CreateEntryUseCase
}

// NewService wraps the entry writer for the payment lifecycle.
func NewService(createEntry *CreateEntryUseCase) *Service {
	return &Service{createEntry: createEntry}
}

// ConsumeFunds debits the user's balance for a completing wallet payment.
func (s *Service) ConsumeFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error) {
	return s.createEntry.create(ctx, dtos.CreateEntryCommand{
		UserID:      userID,
		Type:        entities.EntryTypeDebit,
		Amount:      amount,
		AmountSet:   true,
		PaymentMode: entities.PaymentModeOrderPurchase,
		Reason:      reason,
	})
}

// ReleaseFunds credits funds back for a voided or refunded wallet payment.
func (s *Service) ReleaseFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error) {
	return s.createEntry.create(ctx, dtos.CreateEntryCommand{
		UserID:      userID,
		Type:        entities.EntryTypeCredit,
		Amount:      amount,
		AmountSet:   true,
		PaymentMode: entities.PaymentModePaymentRefund,
		Reason:      reason,
	})
}

// Refunder narrows Service to the refund-only surface the wallet payment
// method needs.
type Refunder struct {
	ledger *Service
}

// NewRefunder creates the refund adapter.
func NewRefunder(ledger *Service) *Refunder {
	return &Refunder{ledger: ledger}
}

// ReleaseFunds satisfies entities.WalletRefunder.
func (r *Refunder) ReleaseFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) error {
	_, err := r.ledger.ReleaseFunds(ctx, userID, amount, reason)
	return err
}
