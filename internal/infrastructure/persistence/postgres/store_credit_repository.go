// Package postgres - StoreCreditRepository implementation.
//
// The store_credits table is the append-only ledger. Rows never change after
// insert except for the free-text reason.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/entities"
	domainErrors "github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

var _ ports.StoreCreditRepository = (*StoreCreditRepository)(nil)

// StoreCreditRepository persists ledger entries.
type StoreCreditRepository struct {
	pool *pgxpool.Pool
}

// NewStoreCreditRepository creates a StoreCreditRepository.
func NewStoreCreditRepository(pool *pgxpool.Pool) *StoreCreditRepository {
	return &StoreCreditRepository{pool: pool}
}

func (r *StoreCreditRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const storeCreditColumns = `
	id, user_id, entry_type, amount_cents, balance_cents, payment_mode,
	reason, transaction_id, transactioner_id, created_at, updated_at
`

// Save inserts a new ledger entry.
//
// The transaction id was collision-checked before insert, so a unique
// violation here means another writer won the generate-then-insert race.
// It surfaces as a stale write, which makes the caller rerun the whole
// operation with a freshly generated id.
func (r *StoreCreditRepository) Save(ctx context.Context, entry *entities.StoreCredit) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO store_credits (
			id, user_id, entry_type, amount_cents, balance_cents, payment_mode,
			reason, transaction_id, transactioner_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.Exec(ctx, query,
		entry.ID(),
		entry.UserID(),
		string(entry.Type()),
		entry.Amount().Cents(),
		entry.Balance().Cents(),
		int(entry.PaymentMode()),
		entry.Reason(),
		entry.TransactionID(),
		entry.TransactionerID(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "store_credits_transaction_id_key") {
			return domainErrors.NewStaleWrite("store_credit", entry.TransactionID(), 0)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user %s", domainErrors.ErrEntityNotFound, entry.UserID())
		}
		return fmt.Errorf("failed to insert store credit: %w", err)
	}

	return nil
}

// UpdateReason persists a reason edit.
func (r *StoreCreditRepository) UpdateReason(ctx context.Context, entry *entities.StoreCredit) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE store_credits SET reason = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, entry.ID(), entry.Reason(), entry.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to update store credit reason: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

// FindByID loads one entry.
func (r *StoreCreditRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.StoreCredit, error) {
	q := r.getQuerier(ctx)

	query := `SELECT` + storeCreditColumns + `FROM store_credits WHERE id = $1`

	return scanStoreCredit(q.QueryRow(ctx, query, id))
}

// ExistsByTransactionID backs the collision check of the transaction id
// generator.
func (r *StoreCreditRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	q := r.getQuerier(ctx)

	query := `SELECT EXISTS(SELECT 1 FROM store_credits WHERE transaction_id = $1)`

	var exists bool
	if err := q.QueryRow(ctx, query, transactionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction id: %w", err)
	}

	return exists, nil
}

// FindByUserID returns a user's entries, newest first.
func (r *StoreCreditRepository) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entities.StoreCredit, error) {
	filter := ports.StoreCreditFilter{UserID: &userID}
	return r.List(ctx, filter, offset, limit)
}

// List returns entries newest first, narrowed by the filter.
func (r *StoreCreditRepository) List(ctx context.Context, filter ports.StoreCreditFilter, offset, limit int) ([]*entities.StoreCredit, error) {
	q := r.getQuerier(ctx)

	query := `SELECT` + storeCreditColumns + `FROM store_credits WHERE 1=1`
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.EntryType != nil {
		args = append(args, string(*filter.EntryType))
		query += fmt.Sprintf(" AND entry_type = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list store credits: %w", err)
	}
	defer rows.Close()

	var entries []*entities.StoreCredit
	for rows.Next() {
		entry, err := scanStoreCredit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating store credit rows: %w", err)
	}

	return entries, nil
}

func scanStoreCredit(row pgx.Row) (*entities.StoreCredit, error) {
	var (
		id            uuid.UUID
		userID        uuid.UUID
		entryType     string
		amountCents   int64
		balanceCents  int64
		paymentMode   int
		reason        string
		transactionID string
		transactioner *uuid.UUID
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(
		&id, &userID, &entryType, &amountCents, &balanceCents, &paymentMode,
		&reason, &transactionID, &transactioner, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan store credit: %w", err)
	}

	amount, err := valueobjects.NewMoneyFromCents(amountCents)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for store credit %s: %w", id, err)
	}
	balance, err := valueobjects.NewMoneyFromCents(balanceCents)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for store credit %s: %w", id, err)
	}

	return entities.ReconstructStoreCredit(
		id,
		entities.EntryType(entryType),
		amount, balance,
		entities.PaymentMode(paymentMode),
		reason, transactionID,
		userID, transactioner,
		createdAt, updatedAt,
	), nil
}
