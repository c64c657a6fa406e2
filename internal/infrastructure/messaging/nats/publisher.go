// Package nats publishes domain events to NATS.
//
// Subjects follow "<prefix>.<event type>", e.g. "walletpay.wallet.debited".
// Delivery is at-least-once; consumers must be idempotent.
package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/events"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// DefaultSubjectPrefix is used when the config leaves the prefix empty.
const DefaultSubjectPrefix = "walletpay"

// Publisher implements ports.EventPublisher on a NATS connection.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher creates a Publisher. An empty prefix falls back to
// DefaultSubjectPrefix.
func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Connect dials the NATS server with sane reconnect settings.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return conn, nil
}

// Publish sends one event.
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	return p.publishRaw(event.EventType(), payload)
}

// PublishBatch sends several events; the first failure fails the batch.
func (p *Publisher) PublishBatch(ctx context.Context, eventsList []events.DomainEvent) error {
	for _, event := range eventsList {
		if err := p.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// PublishRaw sends a pre-serialized payload to the subject for the given
// event type. The outbox relay uses it to forward stored payloads verbatim.
func (p *Publisher) PublishRaw(eventType string, payload []byte) error {
	return p.publishRaw(eventType, payload)
}

func (p *Publisher) publishRaw(eventType string, payload []byte) error {
	subject := p.prefix + "." + eventType
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
