package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/errors"
)

// VoidPaymentUseCase reverses one payment by id. Voiding a completed wallet
// payment releases the consumed funds back to the user's balance.
type VoidPaymentUseCase struct {
	paymentRepo ports.PaymentRepository
	processor   *Processor
}

// NewVoidPaymentUseCase creates the void use case.
func NewVoidPaymentUseCase(paymentRepo ports.PaymentRepository, processor *Processor) *VoidPaymentUseCase {
	return &VoidPaymentUseCase{paymentRepo: paymentRepo, processor: processor}
}

// Execute voids the payment and returns its updated DTO.
func (uc *VoidPaymentUseCase) Execute(ctx context.Context, paymentID uuid.UUID) (*dtos.PaymentDTO, error) {
	payment, err := uc.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: payment %s", errors.ErrEntityNotFound, paymentID)
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if err := uc.processor.Void(ctx, payment); err != nil {
		return nil, err
	}

	dto := dtos.ToPaymentDTO(payment)
	return &dto, nil
}
