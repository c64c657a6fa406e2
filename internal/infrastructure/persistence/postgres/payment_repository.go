// Package postgres - PaymentRepository implementation.
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

var _ ports.PaymentRepository = (*PaymentRepository)(nil)

// PaymentRepository persists payments.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const paymentColumns = `
	id, order_id, order_number, user_id, amount_cents, method_kind, state,
	created_at, updated_at
`

// Save inserts a new payment.
func (r *PaymentRepository) Save(ctx context.Context, payment *entities.Payment) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO payments (
			id, order_id, order_number, user_id, amount_cents, method_kind,
			state, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		payment.ID(),
		payment.OrderID(),
		payment.OrderNumber(),
		payment.UserID(),
		payment.Amount().Cents(),
		string(payment.MethodKind()),
		string(payment.State()),
		payment.CreatedAt(),
		payment.UpdatedAt(),
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: order %s", domainErrors.ErrEntityNotFound, payment.OrderID())
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

// Update persists a state change.
func (r *PaymentRepository) Update(ctx context.Context, payment *entities.Payment) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE payments SET state = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, payment.ID(), string(payment.State()), payment.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

// FindByID loads one payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	q := r.getQuerier(ctx)

	query := `SELECT` + paymentColumns + `FROM payments WHERE id = $1`

	return scanPayment(q.QueryRow(ctx, query, id))
}

// FindByOrderID returns an order's payments in creation order.
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*entities.Payment, error) {
	q := r.getQuerier(ctx)

	query := `SELECT` + paymentColumns + `FROM payments WHERE order_id = $1 ORDER BY created_at ASC`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]*entities.Payment, error) {
	var payments []*entities.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	return payments, nil
}

func scanPayment(row pgx.Row) (*entities.Payment, error) {
	var (
		id          uuid.UUID
		orderID     uuid.UUID
		orderNumber string
		userID      *uuid.UUID
		amountCents int64
		methodKind  string
		state       string
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(
		&id, &orderID, &orderNumber, &userID, &amountCents, &methodKind, &state,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	amount, err := valueobjects.NewMoneyFromCents(amountCents)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for payment %s: %w", id, err)
	}

	return entities.ReconstructPayment(
		id, orderID, orderNumber, userID, amount,
		entities.MethodKind(methodKind),
		entities.PaymentState(state),
		createdAt, updatedAt,
	), nil
}
