// Package ports - transactional outbox for reliable event delivery.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is a serialized domain event waiting to be relayed to the
// message bus. Subject doubles as the bus subject and the event type.
type OutboxMessage struct {
	ID         uuid.UUID
	Subject    string
	Payload    []byte
	OccurredAt time.Time
}

// OutboxRepository stores events in the same transaction as the business
// write. A relay drains pending messages to the bus afterwards, which is
// what makes "ledger entry saved" and "event published" atomic.
//
// It is itself an EventPublisher: use cases publish through it without
// knowing the event takes a detour through a table.
type OutboxRepository interface {
	EventPublisher

	// FindPending returns up to limit unpublished messages, oldest first.
	// Rows are locked so concurrent relays never pick the same message.
	FindPending(ctx context.Context, limit int) ([]OutboxMessage, error)

	// MarkPublished records a successful relay of the message.
	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a failed relay attempt with its reason.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// CleanupPublished deletes published messages older than the given age
	// and returns how many were removed.
	CleanupPublished(ctx context.Context, olderThan time.Duration) (int64, error)
}
