package ledger

import (
	"context"
	"fmt"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/errors"
)

// UpdateReasonUseCase edits the reason of an existing entry. Reason is the
// only field the ledger allows to change after the fact.
type UpdateReasonUseCase struct {
	entryRepo ports.StoreCreditRepository
}

// NewUpdateReasonUseCase creates the reason editor.
func NewUpdateReasonUseCase(entryRepo ports.StoreCreditRepository) *UpdateReasonUseCase {
	return &UpdateReasonUseCase{entryRepo: entryRepo}
}

// Execute applies the edit and returns the updated entry.
func (uc *UpdateReasonUseCase) Execute(ctx context.Context, cmd dtos.UpdateReasonCommand) (*dtos.StoreCreditDTO, error) {
	entry, err := uc.entryRepo.FindByID(ctx, cmd.EntryID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: store credit %s", errors.ErrEntityNotFound, cmd.EntryID)
		}
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}

	if err := entry.UpdateReason(cmd.Reason); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.UpdateReason(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update reason: %w", err)
	}

	dto := dtos.ToStoreCreditDTO(entry)
	return &dto, nil
}
