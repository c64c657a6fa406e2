package payment

import (
	"context"
	"fmt"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/errors"
)

// CreditPaymentUseCase refunds part of a completed payment: wallet payments
// credit the ledger directly, other methods refund through the gateway.
// This is the manual partial-refund path; it does not change payment state.
type CreditPaymentUseCase struct {
	paymentRepo  ports.PaymentRepository
	walletMethod *entities.WalletMethod
	gateway      ports.PaymentGateway
}

// NewCreditPaymentUseCase creates the refund use case.
func NewCreditPaymentUseCase(
	paymentRepo ports.PaymentRepository,
	walletMethod *entities.WalletMethod,
	gateway ports.PaymentGateway,
) *CreditPaymentUseCase {
	return &CreditPaymentUseCase{
		paymentRepo:  paymentRepo,
		walletMethod: walletMethod,
		gateway:      gateway,
	}
}

// Execute refunds the given minor-unit amount against the payment.
func (uc *CreditPaymentUseCase) Execute(ctx context.Context, cmd dtos.RefundPaymentCommand) error {
	payment, err := uc.paymentRepo.FindByID(ctx, cmd.PaymentID)
	if err != nil {
		if errors.IsNotFound(err) {
			return fmt.Errorf("%w: payment %s", errors.ErrEntityNotFound, cmd.PaymentID)
		}
		return fmt.Errorf("failed to load payment: %w", err)
	}

	var resp entities.MethodResponse
	if payment.IsWallet() {
		resp, err = uc.walletMethod.Credit(ctx, payment, cmd.AmountCents)
	} else {
		if !payment.IsCompleted() {
			return errors.ErrPaymentNotCreditable
		}
		resp, err = uc.gateway.Credit(ctx, payment, cmd.AmountCents)
	}
	if err != nil {
		return err
	}
	if !resp.Success {
		return errors.NewGatewayError("credit_declined", resp.Message, nil)
	}

	return nil
}
