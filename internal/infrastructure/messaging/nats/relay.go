package nats

import (
	"context"
	"log/slog"
	"time"

	"github.com/commercekit/walletpay/internal/application/ports"
)

// Bus is the slice of the publisher the relay needs.
type Bus interface {
	PublishRaw(eventType string, payload []byte) error
}

// Relay drains the transactional outbox to the message bus. It polls for
// PENDING messages, publishes each and marks the row PUBLISHED or FAILED.
// Find-and-mark runs inside one transaction so the row lock taken by
// FindPending holds until the mark lands.
type Relay struct {
	outbox    ports.OutboxRepository
	uow       ports.UnitOfWork
	bus       Bus
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// RelayConfig tunes the polling loop.
type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	return c
}

// NewRelay creates a Relay.
func NewRelay(outbox ports.OutboxRepository, uow ports.UnitOfWork, bus Bus, logger *slog.Logger, cfg RelayConfig) *Relay {
	cfg = cfg.withDefaults()
	return &Relay{
		outbox:    outbox,
		uow:       uow,
		bus:       bus,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
}

// Run polls until the context is canceled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started",
		slog.Duration("interval", r.interval),
		slog.Int("batch_size", r.batchSize))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.DrainOnce(ctx); err != nil {
				r.logger.Error("outbox drain failed", slog.String("error", err.Error()))
			}
		}
	}
}

// DrainOnce publishes one batch of pending messages.
func (r *Relay) DrainOnce(ctx context.Context) error {
	return r.uow.Execute(ctx, func(txCtx context.Context) error {
		messages, err := r.outbox.FindPending(txCtx, r.batchSize)
		if err != nil {
			return err
		}

		for _, msg := range messages {
			if err := r.bus.PublishRaw(msg.Subject, msg.Payload); err != nil {
				r.logger.Warn("failed to relay outbox message",
					slog.String("message_id", msg.ID.String()),
					slog.String("subject", msg.Subject),
					slog.String("error", err.Error()))
				if markErr := r.outbox.MarkFailed(txCtx, msg.ID, err.Error()); markErr != nil {
					return markErr
				}
				continue
			}

			if err := r.outbox.MarkPublished(txCtx, msg.ID); err != nil {
				return err
			}
		}

		return nil
	})
}
