package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/errors"
)

// CompletePaymentUseCase completes one payment by id. The wallet debit, when
// the payment is a wallet payment, fires as part of the completion.
type CompletePaymentUseCase struct {
	paymentRepo ports.PaymentRepository
	orderRepo   ports.OrderRepository
	processor   *Processor
}

// NewCompletePaymentUseCase creates the completion use case.
func NewCompletePaymentUseCase(
	paymentRepo ports.PaymentRepository,
	orderRepo ports.OrderRepository,
	processor *Processor,
) *CompletePaymentUseCase {
	return &CompletePaymentUseCase{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		processor:   processor,
	}
}

// Execute completes the payment and returns its updated DTO.
func (uc *CompletePaymentUseCase) Execute(ctx context.Context, paymentID uuid.UUID) (*dtos.PaymentDTO, error) {
	payment, err := uc.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: payment %s", errors.ErrEntityNotFound, paymentID)
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	order, err := uc.orderRepo.FindByID(ctx, payment.OrderID())
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := uc.processor.Complete(ctx, order, payment); err != nil {
		return nil, err
	}

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	dto := dtos.ToPaymentDTO(payment)
	return &dto, nil
}
