// Package postgres - transactional outbox.
//
// Events are written to the outbox table inside the same transaction as the
// ledger write they describe. A separate relay drains PENDING rows to the
// message bus and marks them PUBLISHED. Crash between commit and relay means
// redelivery, never loss.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/events"
)

var (
	_ ports.OutboxRepository = (*OutboxRepository)(nil)
	_ ports.EventPublisher   = (*OutboxRepository)(nil)
)

// Relay attempts stop after this many failures; the row stays FAILED for
// manual inspection.
const outboxMaxRetries = 5

// OutboxRepository implements ports.OutboxRepository.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates an OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Publish stores the event in the outbox. Must run inside the same
// transaction as the business write, which the ambient-transaction context
// takes care of.
func (r *OutboxRepository) Publish(ctx context.Context, event events.DomainEvent) error {
	q := r.getQuerier(ctx)

	payload, err := serializeEvent(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	query := `
		INSERT INTO outbox (
			id, aggregate_type, aggregate_id, event_type, payload,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = q.Exec(ctx, query,
		event.EventID(),
		aggregateTypeOf(event.EventType()),
		event.AggregateID(),
		event.EventType(),
		payload,
		"PENDING",
		event.OccurredAt(),
	)

	if err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}

	return nil
}

// PublishBatch stores several events in one go.
func (r *OutboxRepository) PublishBatch(ctx context.Context, eventsList []events.DomainEvent) error {
	for _, event := range eventsList {
		if err := r.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// FindPending returns up to limit unpublished messages, oldest first.
// FOR UPDATE SKIP LOCKED keeps concurrent relays off each other's rows.
func (r *OutboxRepository) FindPending(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, event_type, payload, created_at
		FROM outbox
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []ports.OutboxMessage
	for rows.Next() {
		var msg ports.OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.Subject, &msg.Payload, &msg.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	return messages, nil
}

// MarkPublished flips a pending message to PUBLISHED.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE outbox
		SET status = 'PUBLISHED', published_at = $2
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := q.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark outbox message as published: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errors.New("outbox message not found or already published")
	}

	return nil
}

// MarkFailed records a failed relay attempt. Messages under the retry cap
// return to PENDING for another pass; the rest stay FAILED.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE outbox
		SET status = CASE WHEN retry_count + 1 < $3 THEN 'PENDING' ELSE 'FAILED' END,
			failed_at = $2,
			last_error = $4,
			retry_count = retry_count + 1
		WHERE id = $1
	`

	_, err := q.Exec(ctx, query, id, time.Now(), outboxMaxRetries, reason)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message as failed: %w", err)
	}

	return nil
}

// CleanupPublished deletes published messages older than the given age.
func (r *OutboxRepository) CleanupPublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	q := r.getQuerier(ctx)

	cutoff := time.Now().Add(-olderThan)

	query := `
		DELETE FROM outbox
		WHERE status = 'PUBLISHED' AND published_at < $1
	`

	result, err := q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup published outbox messages: %w", err)
	}

	return result.RowsAffected(), nil
}

func serializeEvent(event events.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// aggregateTypeOf maps the dotted event type to the aggregate it belongs to.
func aggregateTypeOf(eventType string) string {
	prefix, _, _ := strings.Cut(eventType, ".")
	switch prefix {
	case "storecredit":
		return "StoreCredit"
	case "wallet":
		return "User"
	case "payment":
		return "Payment"
	case "order":
		return "Order"
	default:
		return "Unknown"
	}
}
