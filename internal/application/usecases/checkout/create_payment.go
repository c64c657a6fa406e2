package checkout

import (
	"context"
	"fmt"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	paymentuc "github.com/commercekit/walletpay/internal/application/usecases/payment"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// CreatePaymentUseCase creates one payment on an order. Creating a non-wallet
// payment invalidates the order's other checkout-state payments; wallet
// payments coexist and complete immediately, consuming the funds.
type CreatePaymentUseCase struct {
	orderRepo   ports.OrderRepository
	userRepo    ports.UserRepository
	paymentRepo ports.PaymentRepository
	processor   *paymentuc.Processor
}

// NewCreatePaymentUseCase creates the payment creation use case.
func NewCreatePaymentUseCase(
	orderRepo ports.OrderRepository,
	userRepo ports.UserRepository,
	paymentRepo ports.PaymentRepository,
	processor *paymentuc.Processor,
) *CreatePaymentUseCase {
	return &CreatePaymentUseCase{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		processor:   processor,
	}
}

// Execute creates the payment and returns its DTO. A processing failure,
// including a gateway decline, propagates with the payment left in its
// failure state.
func (uc *CreatePaymentUseCase) Execute(ctx context.Context, cmd dtos.CreatePaymentCommand) (*dtos.PaymentDTO, error) {
	order, err := uc.orderRepo.FindByID(ctx, cmd.OrderID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order %s", errors.ErrEntityNotFound, cmd.OrderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	userBalance := valueobjects.Zero()
	if cmd.MethodKind == entities.MethodKindWallet {
		if order.UserID() == nil {
			return nil, errors.ErrWalletNotLinked
		}
		user, err := uc.userRepo.FindByID(ctx, *order.UserID())
		if err != nil {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		userBalance = user.StoreCreditsTotal()
	}

	payment, err := entities.NewPayment(entities.NewPaymentParams{
		OrderID:        order.ID(),
		OrderNumber:    order.Number(),
		UserID:         order.UserID(),
		Amount:         cmd.Amount,
		MethodKind:     cmd.MethodKind,
		RemainingTotal: order.RemainingTotal(),
		UserBalance:    userBalance,
	})
	if err != nil {
		return nil, err
	}

	order.AttachPayment(payment)
	if err := uc.paymentRepo.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	// A new non-wallet instrument supersedes older unprocessed ones.
	superseded := checkoutPaymentsExcept(order, payment)
	if err := order.InvalidateOldPayments(payment); err != nil {
		return nil, err
	}
	for _, old := range superseded {
		if old.State() != entities.PaymentStateInvalid {
			continue
		}
		if err := uc.paymentRepo.Update(ctx, old); err != nil {
			return nil, fmt.Errorf("failed to update superseded payment: %w", err)
		}
	}

	// Wallet payments never wait for the processing loop.
	if payment.IsWallet() {
		if err := uc.processor.Complete(ctx, order, payment); err != nil {
			return nil, err
		}
	}

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	dto := dtos.ToPaymentDTO(payment)
	return &dto, nil
}

func checkoutPaymentsExcept(order *entities.Order, current *entities.Payment) []*entities.Payment {
	var out []*entities.Payment
	for _, p := range order.PaymentsInState(entities.PaymentStateCheckout) {
		if p.ID() != current.ID() {
			out = append(out, p)
		}
	}
	return out
}
