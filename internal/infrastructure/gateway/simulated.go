// Package gateway holds payment processor adapters.
//
// Real processor integration is out of scope; Simulated stands in for a
// card/check gateway in development and tests. It approves everything by
// default and can decline captures above a configurable amount to
// exercise the failure paths.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/errors"
)

// Simulated is an in-process stand-in for an external payment processor.
type Simulated struct {
	logger *slog.Logger

	// declineOverCents makes Capture fail above this amount; zero means
	// never decline.
	declineOverCents int64
}

// NewSimulated creates a gateway that approves every operation.
func NewSimulated(logger *slog.Logger) *Simulated {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulated{logger: logger}
}

// WithDeclineOver returns a copy that declines captures above cents.
func (g *Simulated) WithDeclineOver(cents int64) *Simulated {
	clone := *g
	clone.declineOverCents = cents
	return &clone
}

// Capture settles the payment, declining when over the configured limit.
func (g *Simulated) Capture(ctx context.Context, payment *entities.Payment) (entities.MethodResponse, error) {
	cents := payment.Amount().Cents()

	if g.declineOverCents > 0 && cents > g.declineOverCents {
		g.logger.WarnContext(ctx, "Simulated gateway declined capture",
			slog.String("payment_id", payment.ID().String()),
			slog.Int64("amount_cents", cents),
		)
		return entities.MethodResponse{Success: false, Message: "amount over limit"},
			errors.NewGatewayError("capture_declined", "payment was declined by the processor", nil)
	}

	g.logger.InfoContext(ctx, "Simulated gateway captured payment",
		slog.String("payment_id", payment.ID().String()),
		slog.String("method", string(payment.MethodKind())),
		slog.Int64("amount_cents", cents),
	)

	return entities.MethodResponse{
		Success: true,
		Message: fmt.Sprintf("captured %s", payment.Amount().String()),
	}, nil
}

// Void reverses the payment with the processor.
func (g *Simulated) Void(ctx context.Context, payment *entities.Payment) (entities.MethodResponse, error) {
	g.logger.InfoContext(ctx, "Simulated gateway voided payment",
		slog.String("payment_id", payment.ID().String()),
	)
	return entities.MethodResponse{Success: true, Message: "voided"}, nil
}

// Credit refunds amountCents of the payment.
func (g *Simulated) Credit(ctx context.Context, payment *entities.Payment, amountCents int64) (entities.MethodResponse, error) {
	if amountCents <= 0 || amountCents > payment.Amount().Cents() {
		return entities.MethodResponse{Success: false, Message: "invalid refund amount"},
			errors.NewGatewayError("credit_rejected", "refund amount exceeds the captured amount", nil)
	}

	g.logger.InfoContext(ctx, "Simulated gateway credited payment",
		slog.String("payment_id", payment.ID().String()),
		slog.Int64("amount_cents", amountCents),
	)
	return entities.MethodResponse{Success: true, Message: "credited"}, nil
}
