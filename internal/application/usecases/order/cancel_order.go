// Package order contains the order lifecycle use cases the wallet reconciles
// against: completion drives pending wallet payments to captured, and
// cancellation releases captured wallet funds back to their owners.
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

// CancelOrderUseCase cancels an order and voids its still-voidable wallet
// payments. Non-wallet payments are left alone; reversing them is an
// explicit, separate operation.
type CancelOrderUseCase struct {
	orderRepo ports.OrderRepository
	processor *paymentuc.Processor
	publisher ports.EventPublisher
}

// NewCancelOrderUseCase creates the cancel use case.
func NewCancelOrderUseCase(
	orderRepo ports.OrderRepository,
	processor *paymentuc.Processor,
	publisher ports.EventPublisher,
) *CancelOrderUseCase {
	return &CancelOrderUseCase{orderRepo: orderRepo, processor: processor, publisher: publisher}
}

// Execute cancels the order and returns its updated DTO.
func (uc *CancelOrderUseCase) Execute(ctx context.Context, orderID uuid.UUID) (*dtos.OrderDTO, error) {
	order, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order %s", errors.ErrEntityNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := order.MarkCanceled(); err != nil {
		return nil, err
	}

	for _, p := range order.WalletPayments() {
		if p.State() == entities.PaymentStateVoid {
			continue
		}
		if err := uc.processor.Void(ctx, p); err != nil {
			return nil, err
		}
	}

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err := uc.publisher.Publish(ctx, events.NewOrderCanceled(order.ID(), order.Number())); err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	dto := dtos.ToOrderDTO(order)
	return &dto, nil
}
