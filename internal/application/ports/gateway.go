// Package ports - PaymentGateway is the boundary to external payment
// processors. Gateway integration itself is out of scope; the core only
// needs the capture/void/credit surface and the failure contract.
package ports

import (
	"context"

	"github.com/commercekit/walletpay/internal/domain/entities"
)

// PaymentGateway processes non-wallet payments.
// Failures are reported as *errors.GatewayError so the order-processing
// boundary can decide between hard-failing the checkout and annotating the
// order (the allow-checkout-on-gateway-error setting).
type PaymentGateway interface {
	// Capture settles the payment with the processor.
	Capture(ctx context.Context, payment *entities.Payment) (entities.MethodResponse, error)

	// Void reverses an uncaptured or captured payment.
	Void(ctx context.Context, payment *entities.Payment) (entities.MethodResponse, error)

	// Credit refunds amountCents (minor units) of a captured payment.
	Credit(ctx context.Context, payment *entities.Payment, amountCents int64) (entities.MethodResponse, error)
}
