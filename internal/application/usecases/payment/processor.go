// Package payment contains the payment lifecycle use cases. The ledger hooks
// live here: completing a wallet payment consumes funds, voiding a completed
// one releases them back.
package payment

import (
	"context"
	"fmt"

	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/events"
)

// Processor drives individual payments through their state machine and fires
// the ledger hooks the transitions imply. It operates on in-memory aggregates;
// the caller persists the order afterwards.
type Processor struct {
	paymentRepo  ports.PaymentRepository
	ledger       ports.WalletLedger
	gateway      ports.PaymentGateway
	publisher    ports.EventPublisher
	walletMethod *entities.WalletMethod
	uow          ports.UnitOfWork
}

// NewProcessor creates the payment processor. The wallet method is injected
// once here; nothing ever looks it up by scanning method types.
func NewProcessor(
	paymentRepo ports.PaymentRepository,
	ledger ports.WalletLedger,
	gateway ports.PaymentGateway,
	publisher ports.EventPublisher,
	walletMethod *entities.WalletMethod,
	uow ports.UnitOfWork,
) *Processor {
	return &Processor{
		paymentRepo:  paymentRepo,
		ledger:       ledger,
		gateway:      gateway,
		publisher:    publisher,
		walletMethod: walletMethod,
		uow:          uow,
	}
}

// Complete drives one payment to completed and accumulates it into the
// order's paid total. Wallet payments settle against the ledger; other
// methods capture through the gateway.
func (pr *Processor) Complete(ctx context.Context, order *entities.Order, p *entities.Payment) error {
	if p.IsWallet() {
		return pr.completeWallet(ctx, order, p)
	}
	return pr.captureExternal(ctx, order, p)
}

// completeWallet writes the order-purchase debit and completes the payment,
// atomically. The debit and the payment state change commit together.
func (pr *Processor) completeWallet(ctx context.Context, order *entities.Order, p *entities.Payment) error {
	if p.UserID() == nil {
		return errors.ErrWalletNotLinked
	}

	return pr.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := p.Complete(); err != nil {
			return err
		}

		reason := fmt.Sprintf("Payment consumed of order %s", p.OrderNumber())
		entry, err := pr.ledger.ConsumeFunds(txCtx, *p.UserID(), p.Amount(), reason)
		if err != nil {
			return err
		}

		if err := pr.paymentRepo.Update(txCtx, p); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		order.AddToPaymentTotal(p.Amount())

		return pr.publisher.PublishBatch(txCtx, []events.DomainEvent{
			events.NewPaymentCompleted(p.ID(), p.OrderID(), p.Amount(), p.MethodKind()),
			events.NewWalletDebited(*p.UserID(), p.Amount(), entry.Balance(), p.OrderNumber()),
		})
	})
}

// captureExternal settles a non-wallet payment through the gateway. A gateway
// failure marks the payment failed, persists that, and propagates the error
// for the order-processing boundary to decide on.
func (pr *Processor) captureExternal(ctx context.Context, order *entities.Order, p *entities.Payment) error {
	if err := p.StartProcessing(); err != nil {
		return err
	}

	resp, err := pr.gateway.Capture(ctx, p)
	if err == nil && !resp.Success {
		err = errors.NewGatewayError("capture_declined", resp.Message, nil)
	}
	if err != nil {
		if failErr := p.Fail(); failErr == nil {
			_ = pr.paymentRepo.Update(ctx, p)
		}
		return err
	}

	if err := p.Complete(); err != nil {
		return err
	}
	if err := pr.paymentRepo.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	order.AddToPaymentTotal(p.Amount())

	return pr.publisher.Publish(ctx, events.NewPaymentCompleted(p.ID(), p.OrderID(), p.Amount(), p.MethodKind()))
}

// Void reverses one payment. A wallet payment that had already captured funds
// gets the reversing credit; the void and the credit commit together.
func (pr *Processor) Void(ctx context.Context, p *entities.Payment) error {
	wasCompleted := p.IsCompleted()

	if p.IsWallet() {
		// A completed wallet payment owes a reversing credit, which needs
		// an identifiable user. Stored rows may carry a NULL user.
		if wasCompleted && p.UserID() == nil {
			return errors.ErrWalletNotLinked
		}
		if !pr.walletMethod.CanVoid(p) {
			return errors.ErrPaymentNotVoidable
		}
		if _, err := pr.walletMethod.Void(ctx, p); err != nil {
			return err
		}
	} else {
		resp, err := pr.gateway.Void(ctx, p)
		if err != nil {
			return err
		}
		if !resp.Success {
			return errors.NewGatewayError("void_declined", resp.Message, nil)
		}
	}

	return pr.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := p.Void(); err != nil {
			return err
		}

		evts := []events.DomainEvent{
			events.NewPaymentVoided(p.ID(), p.OrderID(), p.Amount(), p.MethodKind()),
		}

		if p.IsWallet() && wasCompleted {
			reason := fmt.Sprintf("Payment released of order %s", p.OrderNumber())
			entry, err := pr.ledger.ReleaseFunds(txCtx, *p.UserID(), p.Amount(), reason)
			if err != nil {
				return err
			}
			evts = append(evts, events.NewWalletCredited(*p.UserID(), p.Amount(), entry.Balance(), p.OrderNumber()))
		}

		if err := pr.paymentRepo.Update(txCtx, p); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		return pr.publisher.PublishBatch(txCtx, evts)
	})
}
