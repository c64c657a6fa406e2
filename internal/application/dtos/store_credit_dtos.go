// Package dtos carries the commands use cases accept and the DTOs they
// return. Domain entities never cross the application boundary directly.
package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// CreateEntryCommand requests one ledger entry.
type CreateEntryCommand struct {
	UserID      uuid.UUID
	Type        entities.EntryType
	Amount      valueobjects.Money
	AmountSet   bool
	PaymentMode entities.PaymentMode
	Reason      string

	// Transactioner is the staff member recording the entry, when the entry
	// is entered manually rather than by a system flow.
	Transactioner *uuid.UUID

	// RestrictNegativeModes must be set by any flow that accepts end-user
	// input; it limits PaymentMode to the non-reserved subset.
	RestrictNegativeModes bool
}

// ListEntriesQuery narrows and pages a ledger listing. Entries always come
// back newest first.
type ListEntriesQuery struct {
	UserID  *uuid.UUID
	Type    *entities.EntryType
	Page    int
	PerPage int
}

// UpdateReasonCommand edits the free-text reason of an existing entry.
type UpdateReasonCommand struct {
	EntryID uuid.UUID
	Reason  string
}

// StoreCreditDTO is the outward representation of a ledger entry.
type StoreCreditDTO struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	Balance       string    `json:"balance"`
	PaymentMode   int       `json:"payment_mode"`
	Reason        string    `json:"reason"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Transactioner string    `json:"transactioner_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BalanceDTO reports a user's current store-credit total.
type BalanceDTO struct {
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}
