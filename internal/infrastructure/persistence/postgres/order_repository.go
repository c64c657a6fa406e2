// Package postgres - OrderRepository implementation.
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

var _ ports.OrderRepository = (*OrderRepository)(nil)

// OrderRepository persists the payment-relevant slice of orders. Loading an
// order also loads its payments, since every reconciliation decision walks
// the payment collection.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderColumns = `
	id, number, email, user_id, total_cents, payment_total_cents, state,
	gateway_error_note, created_at, updated_at
`

// Save inserts a new order.
func (r *OrderRepository) Save(ctx context.Context, order *entities.Order) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO orders (
			id, number, email, user_id, total_cents, payment_total_cents,
			state, gateway_error_note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := q.Exec(ctx, query,
		order.ID(),
		order.Number(),
		order.Email(),
		order.UserID(),
		order.Total().Cents(),
		order.PaymentTotal().Cents(),
		string(order.State()),
		order.GatewayErrorNote(),
		order.CreatedAt(),
		order.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "orders_number_key") {
			return domainErrors.ValidationError{Field: "number", Message: "has already been taken"}
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// Update persists state, payment total and the gateway-error note.
func (r *OrderRepository) Update(ctx context.Context, order *entities.Order) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE orders SET
			payment_total_cents = $2,
			state = $3,
			gateway_error_note = $4,
			updated_at = $5
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query,
		order.ID(),
		order.PaymentTotal().Cents(),
		string(order.State()),
		order.GatewayErrorNote(),
		order.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

// FindByID loads an order with its payments attached.
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Order, error) {
	q := r.getQuerier(ctx)

	query := `SELECT` + orderColumns + `FROM orders WHERE id = $1`

	order, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	return r.withPayments(ctx, q, order)
}

// FindByNumber loads an order by its public number.
func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*entities.Order, error) {
	q := r.getQuerier(ctx)

	query := `SELECT` + orderColumns + `FROM orders WHERE number = $1`

	order, err := scanOrder(q.QueryRow(ctx, query, number))
	if err != nil {
		return nil, err
	}

	return r.withPayments(ctx, q, order)
}

func (r *OrderRepository) withPayments(ctx context.Context, q querier, order *entities.Order) (*entities.Order, error) {
	query := `SELECT` + paymentColumns + `FROM payments WHERE order_id = $1 ORDER BY created_at ASC`

	rows, err := q.Query(ctx, query, order.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load order payments: %w", err)
	}
	defer rows.Close()

	payments, err := collectPayments(rows)
	if err != nil {
		return nil, err
	}

	for _, p := range payments {
		order.AttachPayment(p)
	}

	return order, nil
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var (
		id                uuid.UUID
		number            string
		email             string
		userID            *uuid.UUID
		totalCents        int64
		paymentTotalCents int64
		state             string
		gatewayErrorNote  string
		createdAt         time.Time
		updatedAt         time.Time
	)

	err := row.Scan(
		&id, &number, &email, &userID, &totalCents, &paymentTotalCents,
		&state, &gatewayErrorNote, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	total, err := valueobjects.NewMoneyFromCents(totalCents)
	if err != nil {
		return nil, fmt.Errorf("corrupt total for order %s: %w", id, err)
	}
	paymentTotal, err := valueobjects.NewMoneyFromCents(paymentTotalCents)
	if err != nil {
		return nil, fmt.Errorf("corrupt payment total for order %s: %w", id, err)
	}

	return entities.ReconstructOrder(
		id, number, email, userID, total, paymentTotal,
		entities.OrderState(state), gatewayErrorNote,
		createdAt, updatedAt,
	), nil
}
