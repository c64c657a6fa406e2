// Package ports - EventPublisher pushes domain events to the message bus.
package ports

import (
	"context"

	"github.com/commercekit/walletpay/internal/domain/events"
)

// EventPublisher publishes domain events. Delivery is at-least-once;
// consumers must be idempotent.
type EventPublisher interface {
	// Publish sends one event.
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends several events; a failure fails the whole batch.
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
