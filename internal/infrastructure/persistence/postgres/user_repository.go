// Package postgres - UserRepository implementation.
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

var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository persists users and their materialized store-credit balance.
//
// Thread-safe: backed by the connection pool. Transaction-aware: joins the
// ambient transaction when the context carries one.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save inserts a new user.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO users (id, email, store_credits_total, lock_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		user.ID(),
		user.Email(),
		user.StoreCreditsTotal().Cents(),
		user.LockVersion(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return domainErrors.ValidationError{Field: "email", Message: "has already been taken"}
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// FindByID loads a user with balance and lock version.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, email, store_credits_total, lock_version, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return scanUser(q.QueryRow(ctx, query, id))
}

// FindByEmail loads a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, email, store_credits_total, lock_version, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	return scanUser(q.QueryRow(ctx, query, email))
}

// UpdateBalance writes the new materialized total with a compare-and-swap on
// the previous lock version.
//
// The entity bumps lock_version on ApplyBalance, so the row's expected
// version is the entity's current version minus one. Zero rows affected
// means another writer got there first; the caller re-reads and retries.
func (r *UserRepository) UpdateBalance(ctx context.Context, user *entities.User) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE users SET
			store_credits_total = $2,
			lock_version = $3,
			updated_at = $4
		WHERE id = $1 AND lock_version = $5
	`

	expectedVersion := user.LockVersion() - 1

	result, err := q.Exec(ctx, query,
		user.ID(),
		user.StoreCreditsTotal().Cents(),
		user.LockVersion(),
		user.UpdatedAt(),
		expectedVersion,
	)

	if err != nil {
		return fmt.Errorf("failed to update user balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.NewStaleWrite("user", user.ID().String(), expectedVersion)
	}

	return nil
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var (
		id          uuid.UUID
		email       string
		totalCents  int64
		lockVersion int64
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&id, &email, &totalCents, &lockVersion, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	total, err := valueobjects.NewMoneyFromCents(totalCents)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for user %s: %w", id, err)
	}

	return entities.ReconstructUser(id, email, total, lockVersion, createdAt, updatedAt), nil
}
