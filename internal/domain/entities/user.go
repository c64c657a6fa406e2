// Package entities - User is referenced by the ledger, not owned by it.
// The ledger cares about two things on a user: the materialized store-credit
// balance and the optimistic-lock version guarding it.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// User carries the cached store-credit total. The total is a materialized
// running balance, never recomputed by summing ledger history, so its
// correctness depends on serializing writes per user via LockVersion.
type User struct {
	id                uuid.UUID
	email             string
	storeCreditsTotal valueobjects.Money
	lockVersion       int64

	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a user with a zero balance.
func NewUser(email string) (*User, error) {
	if email == "" {
		return nil, errors.ValidationError{Field: "email", Message: "is required"}
	}

	now := time.Now()
	return &User{
		id:                uuid.New(),
		email:             email,
		storeCreditsTotal: valueobjects.Zero(),
		lockVersion:       0,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructUser rehydrates a user from storage.
func ReconstructUser(
	id uuid.UUID,
	email string,
	storeCreditsTotal valueobjects.Money,
	lockVersion int64,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:                id,
		email:             email,
		storeCreditsTotal: storeCreditsTotal,
		lockVersion:       lockVersion,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (u *User) ID() uuid.UUID                         { return u.id }
func (u *User) Email() string                         { return u.email }
func (u *User) StoreCreditsTotal() valueobjects.Money { return u.storeCreditsTotal }
func (u *User) LockVersion() int64                    { return u.lockVersion }
func (u *User) CreatedAt() time.Time                  { return u.createdAt }
func (u *User) UpdatedAt() time.Time                  { return u.updatedAt }

// ApplyBalance sets the new materialized total and bumps the lock version.
// The repository persists it with a compare-and-swap on the previous version;
// a lost race surfaces as StaleWriteError and rolls back the whole operation.
func (u *User) ApplyBalance(balance valueobjects.Money) {
	u.storeCreditsTotal = balance
	u.lockVersion++
	u.updatedAt = time.Now()
}
