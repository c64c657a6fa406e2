package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	paymentuc "github.com/commercekit/walletpay/internal/application/usecases/payment"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/errors"
)

// ProcessPaymentsUseCase drives an order's unprocessed payments to completed,
// in creation order, stopping once the order is paid in full.
//
// A gateway failure aborts the remaining payments. By default it propagates;
// with allowCheckoutOnGatewayError set, the order proceeds with the failure
// annotated instead.
type ProcessPaymentsUseCase struct {
	orderRepo                   ports.OrderRepository
	processor                   *paymentuc.Processor
	allowCheckoutOnGatewayError bool
}

// NewProcessPaymentsUseCase creates the processing loop.
func NewProcessPaymentsUseCase(
	orderRepo ports.OrderRepository,
	processor *paymentuc.Processor,
	allowCheckoutOnGatewayError bool,
) *ProcessPaymentsUseCase {
	return &ProcessPaymentsUseCase{
		orderRepo:                   orderRepo,
		processor:                   processor,
		allowCheckoutOnGatewayError: allowCheckoutOnGatewayError,
	}
}

// Execute processes the order's payments and returns the updated order.
func (uc *ProcessPaymentsUseCase) Execute(ctx context.Context, orderID uuid.UUID) (*dtos.OrderDTO, error) {
	order, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order %s", errors.ErrEntityNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	for _, p := range order.Payments() {
		if order.PaymentTotal().GreaterThanOrEqual(order.Total()) {
			break
		}
		if p.State() != entities.PaymentStateCheckout && p.State() != entities.PaymentStatePending {
			continue
		}

		if err := uc.processor.Complete(ctx, order, p); err != nil {
			if errors.IsGatewayError(err) && uc.allowCheckoutOnGatewayError {
				order.AnnotateGatewayError(err.Error())
				break
			}
			// Keep whatever already completed on record before surfacing.
			_ = uc.orderRepo.Update(ctx, order)
			return nil, err
		}
	}

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	dto := dtos.ToOrderDTO(order)
	return &dto, nil
}
