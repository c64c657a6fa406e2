// Package ledger contains the use cases operating the store-credit ledger:
// entering entries, reading balances and listing history. CreateEntryUseCase
// is the single write path; every flow that moves funds goes through it.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/events"
)

const (
	defaultTransactionIDAttempts = 10
	defaultStaleWriteRetries     = 3
)

// Config bounds the two retry loops of the entry writer. Zero values fall
// back to the defaults.
type Config struct {
	// TransactionIDAttempts caps the regenerate-on-collision loop for
	// transaction ids.
	TransactionIDAttempts int

	// StaleWriteRetries caps how many times the whole operation is rerun
	// after losing the optimistic-lock race on the user's balance.
	StaleWriteRetries int
}

func (c Config) withDefaults() Config {
	if c.TransactionIDAttempts <= 0 {
		c.TransactionIDAttempts = defaultTransactionIDAttempts
	}
	if c.StaleWriteRetries <= 0 {
		c.StaleWriteRetries = defaultStaleWriteRetries
	}
	return c
}

// CreateEntryUseCase writes one ledger entry and the balance it implies.
//
// Flow, inside one transaction:
// 1. Load the user; their materialized total is the entry's prior balance.
// 2. Generate a collision-checked transaction id (bounded attempts).
// 3. Create the entry; the variant's policy computes the resulting balance
//    and rejects overdraws.
// 4. Persist the entry and compare-and-swap the user's balance.
// 5. Publish the ledger event.
//
// A lost balance race rolls everything back and reruns the flow against the
// fresh balance, up to StaleWriteRetries times. When the caller already holds
// a transaction the rerun would not start from a rollback, so the stale write
// propagates instead and the transaction's owner retries the whole operation.
// The cache entry for the user is dropped after commit.
type CreateEntryUseCase struct {
	userRepo  ports.UserRepository
	entryRepo ports.StoreCreditRepository
	publisher ports.EventPublisher
	cache     ports.BalanceCache
	uow       ports.UnitOfWork
	cfg       Config
}

// NewCreateEntryUseCase creates the ledger entry writer.
func NewCreateEntryUseCase(
	userRepo ports.UserRepository,
	entryRepo ports.StoreCreditRepository,
	publisher ports.EventPublisher,
	cache ports.BalanceCache,
	uow ports.UnitOfWork,
	cfg Config,
) *CreateEntryUseCase {
	return &CreateEntryUseCase{
		userRepo:  userRepo,
		entryRepo: entryRepo,
		publisher: publisher,
		cache:     cache,
		uow:       uow,
		cfg:       cfg.withDefaults(),
	}
}

// Execute writes the entry and returns its DTO.
func (uc *CreateEntryUseCase) Execute(ctx context.Context, cmd dtos.CreateEntryCommand) (*dtos.StoreCreditDTO, error) {
	entry, err := uc.create(ctx, cmd)
	if err != nil {
		return nil, err
	}

	dto := dtos.ToStoreCreditDTO(entry)
	return &dto, nil
}

// create runs the transactional flow and returns the written entry. The
// payment lifecycle uses this directly when it needs the resulting balance.
func (uc *CreateEntryUseCase) create(ctx context.Context, cmd dtos.CreateEntryCommand) (*entities.StoreCredit, error) {
	var entry *entities.StoreCredit

	for attempt := 0; ; attempt++ {
		err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
			user, err := uc.userRepo.FindByID(txCtx, cmd.UserID)
			if err != nil {
				if errors.IsNotFound(err) {
					return fmt.Errorf("%w: user %s", errors.ErrEntityNotFound, cmd.UserID)
				}
				return fmt.Errorf("failed to load user: %w", err)
			}

			transactionID, err := uc.generateTransactionID(txCtx)
			if err != nil {
				return err
			}

			entry, err = entities.NewStoreCredit(entities.NewEntryParams{
				Type:                  cmd.Type,
				Amount:                cmd.Amount,
				AmountSet:             cmd.AmountSet,
				PriorBalance:          user.StoreCreditsTotal(),
				PaymentMode:           cmd.PaymentMode,
				Reason:                cmd.Reason,
				UserID:                cmd.UserID,
				Transactioner:         cmd.Transactioner,
				TransactionID:         transactionID,
				RestrictNegativeModes: cmd.RestrictNegativeModes,
			})
			if err != nil {
				return err
			}

			if err := uc.entryRepo.Save(txCtx, entry); err != nil {
				return fmt.Errorf("failed to save entry: %w", err)
			}

			user.ApplyBalance(entry.Balance())
			if err := uc.userRepo.UpdateBalance(txCtx, user); err != nil {
				return err
			}

			if err := uc.publisher.Publish(txCtx, events.NewStoreCreditEntered(entry)); err != nil {
				return fmt.Errorf("failed to publish event: %w", err)
			}

			return nil
		})
		if err == nil {
			break
		}
		// Never retry while joined to a caller's transaction: the failed
		// attempt's entry was not rolled back, so a rerun would write a
		// second one. The owner of the transaction retries instead.
		if errors.IsStaleWrite(err) && attempt < uc.cfg.StaleWriteRetries && !uc.uow.InTransaction(ctx) {
			continue
		}
		return nil, err
	}

	// Best effort: a failed invalidation only delays the next fresh read.
	_ = uc.cache.Invalidate(ctx, cmd.UserID)

	return entry, nil
}

// generateTransactionID produces a storage-unique transaction id, retrying
// on collision up to the configured bound.
func (uc *CreateEntryUseCase) generateTransactionID(ctx context.Context) (string, error) {
	for i := 0; i < uc.cfg.TransactionIDAttempts; i++ {
		candidate := entities.GenerateTransactionID(time.Now())

		exists, err := uc.entryRepo.ExistsByTransactionID(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check transaction id: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.ErrTransactionIDExhausted
}
