package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	paymentuc "github.com/commercekit/walletpay/internal/application/usecases/payment"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/events"
)

// CompleteOrderUseCase places an order. Wallet payments still in a
// pre-completion state are driven to completed first, so the ledger debit
// always lands before the order counts as paid.
type CompleteOrderUseCase struct {
	orderRepo ports.OrderRepository
	processor *paymentuc.Processor
	publisher ports.EventPublisher
}

// NewCompleteOrderUseCase creates the completion use case.
func NewCompleteOrderUseCase(
	orderRepo ports.OrderRepository,
	processor *paymentuc.Processor,
	publisher ports.EventPublisher,
) *CompleteOrderUseCase {
	return &CompleteOrderUseCase{orderRepo: orderRepo, processor: processor, publisher: publisher}
}

// Execute completes the order and returns its updated DTO.
func (uc *CompleteOrderUseCase) Execute(ctx context.Context, orderID uuid.UUID) (*dtos.OrderDTO, error) {
	order, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order %s", errors.ErrEntityNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	for _, p := range order.WalletPayments() {
		switch p.State() {
		case entities.PaymentStateCheckout, entities.PaymentStatePending, entities.PaymentStateProcessing:
			if err := uc.processor.Complete(ctx, order, p); err != nil {
				return nil, err
			}
		}
	}

	if err := order.MarkComplete(); err != nil {
		return nil, err
	}

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err := uc.publisher.Publish(ctx, events.NewOrderCompleted(order.ID(), order.Number())); err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	dto := dtos.ToOrderDTO(order)
	return &dto, nil
}
