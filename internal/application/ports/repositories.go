// Package ports defines the interfaces the application layer depends on.
// Infrastructure provides the implementations (PostgreSQL, NATS, Redis);
// tests provide in-memory fakes.
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/entities"
)

// UserRepository stores users and their materialized store-credit balance.
type UserRepository interface {
	// Save inserts a new user.
	Save(ctx context.Context, user *entities.User) error

	// FindByID loads a user, including balance and lock version.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByEmail loads a user by email; used to resolve the paying user on
	// guest orders that carry a known email.
	FindByEmail(ctx context.Context, email string) (*entities.User, error)

	// UpdateBalance writes the user's new store-credit total with a
	// compare-and-swap on the previous lock version. Returns StaleWriteError
	// when the version already advanced; the caller must re-read and retry
	// the whole operation.
	UpdateBalance(ctx context.Context, user *entities.User) error
}

// StoreCreditRepository stores ledger entries.
type StoreCreditRepository interface {
	// Save inserts a new entry. Entries are immutable apart from the reason.
	Save(ctx context.Context, entry *entities.StoreCredit) error

	// UpdateReason persists a reason edit, the one mutable field.
	UpdateReason(ctx context.Context, entry *entities.StoreCredit) error

	// FindByID loads one entry.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.StoreCredit, error)

	// ExistsByTransactionID backs the collision check of the id generator.
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)

	// FindByUserID returns a user's entries, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entities.StoreCredit, error)

	// List returns entries with filtering and paging, newest first.
	List(ctx context.Context, filter StoreCreditFilter, offset, limit int) ([]*entities.StoreCredit, error)
}

// StoreCreditFilter narrows a ledger listing.
type StoreCreditFilter struct {
	UserID    *uuid.UUID
	EntryType *entities.EntryType
}

// OrderRepository stores the payment-relevant slice of orders.
type OrderRepository interface {
	// Save inserts a new order.
	Save(ctx context.Context, order *entities.Order) error

	// Update persists state, payment total and the gateway-error note.
	Update(ctx context.Context, order *entities.Order) error

	// FindByID loads an order with its payments attached.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Order, error)

	// FindByNumber loads an order by its public number.
	FindByNumber(ctx context.Context, number string) (*entities.Order, error)
}

// PaymentRepository stores payments.
type PaymentRepository interface {
	// Save inserts a new payment.
	Save(ctx context.Context, payment *entities.Payment) error

	// Update persists a state change.
	Update(ctx context.Context, payment *entities.Payment) error

	// FindByID loads one payment.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error)

	// FindByOrderID returns an order's payments in creation order.
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*entities.Payment, error)
}
