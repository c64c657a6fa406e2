// Package entities - StoreCredit is one immutable ledger entry against a
// user's store-credit balance. An entry is either a Credit or a Debit; the
// variant is fixed at construction and drives how the entry's amount affects
// the running balance.
package entities

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// EntryType tags the two ledger entry variants.
type EntryType string

const (
	EntryTypeCredit EntryType = "CREDIT"
	EntryTypeDebit  EntryType = "DEBIT"
)

// IsValid checks if the entry type is valid.
func (t EntryType) IsValid() bool {
	return t == EntryTypeCredit || t == EntryTypeDebit
}

// PaymentMode classifies why a ledger entry was created. Negative modes are
// reserved for system-internal flows and cannot be set from end-user input.
type PaymentMode int

// Credit modes.
const (
	PaymentModePaymentRefund PaymentMode = -1 // reversal of a completed wallet payment
	PaymentModeRefund        PaymentMode = 0  // manual refund entered by staff
	PaymentModeBank          PaymentMode = 1  // bank deposit entered by staff
)

// Debit modes.
const (
	PaymentModeOrderPurchase PaymentMode = -1 // wallet funds consumed by an order payment
	PaymentModeDeduce        PaymentMode = 0  // manual deduction entered by staff
)

// AllowedModes returns the legal payment modes for an entry type.
// With restrictNegative set, the reserved (negative) modes are excluded.
// Flows that accept end-user input must set it.
func (t EntryType) AllowedModes(restrictNegative bool) []PaymentMode {
	var modes []PaymentMode
	switch t {
	case EntryTypeCredit:
		modes = []PaymentMode{PaymentModePaymentRefund, PaymentModeRefund, PaymentModeBank}
	case EntryTypeDebit:
		modes = []PaymentMode{PaymentModeOrderPurchase, PaymentModeDeduce}
	}

	if !restrictNegative {
		return modes
	}

	allowed := modes[:0:0]
	for _, m := range modes {
		if m >= 0 {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

// balancePolicy is the single hook each variant implements: how the entry's
// amount moves a prior balance. Shared validation and balance computation
// operate over this interface so the logic is never duplicated per variant.
type balancePolicy interface {
	// effectiveBalance returns prior + effectiveAmount(amount).
	effectiveBalance(prior, amount valueobjects.Money) (valueobjects.Money, error)
}

// creditPolicy: effectiveAmount(x) == x.
type creditPolicy struct{}

func (creditPolicy) effectiveBalance(prior, amount valueobjects.Money) (valueobjects.Money, error) {
	return prior.Add(amount), nil
}

// debitPolicy: effectiveAmount(x) == -x. Subtract refuses to go negative,
// which is exactly the overdraw rule.
type debitPolicy struct{}

func (debitPolicy) effectiveBalance(prior, amount valueobjects.Money) (valueobjects.Money, error) {
	balance, err := prior.Subtract(amount)
	if err != nil {
		return valueobjects.Money{}, errors.ErrBalanceBelowZero
	}
	return balance, nil
}

// policyFor resolves the variant's policy once at construction.
func policyFor(t EntryType) balancePolicy {
	if t == EntryTypeDebit {
		return debitPolicy{}
	}
	return creditPolicy{}
}

// StoreCredit is a single ledger entry. Financial fields are immutable after
// creation; only Reason may be edited. Entries are never deleted except when
// the owning user is removed.
type StoreCredit struct {
	id            uuid.UUID
	entryType     EntryType
	amount        valueobjects.Money
	balance       valueobjects.Money // the user's balance after this entry
	paymentMode   PaymentMode
	reason        string
	transactionID string
	userID        uuid.UUID
	transactioner *uuid.UUID // acting staff member, if any

	createdAt time.Time
	updatedAt time.Time
}

// NewEntryParams carries everything needed to create a ledger entry.
type NewEntryParams struct {
	Type          EntryType
	Amount        valueobjects.Money
	AmountSet     bool // distinguishes an omitted amount from an explicit zero
	PriorBalance  valueobjects.Money
	PaymentMode   PaymentMode
	Reason        string
	UserID        uuid.UUID
	Transactioner *uuid.UUID
	TransactionID string

	// RestrictNegativeModes limits PaymentMode to the non-negative subset.
	// Off by default: the data layer allows reserved modes, and the system
	// flows that use them never expose the flag to callers.
	RestrictNegativeModes bool
}

// NewStoreCredit validates params, computes the resulting balance through the
// variant's policy and returns the entry. The caller owns transaction-id
// generation (it requires a uniqueness check against storage) and must write
// the returned Balance back to the user atomically with persisting the entry.
func NewStoreCredit(params NewEntryParams) (*StoreCredit, error) {
	var errs errors.ValidationErrors

	if !params.Type.IsValid() {
		errs.Add("type", "must be CREDIT or DEBIT")
	}
	if params.UserID == uuid.Nil {
		errs.Add("user_id", "is required")
	}
	if params.Reason == "" {
		errs.Add("reason", "is required")
	}
	if !params.AmountSet {
		errs.Add("amount", "is required")
	}
	if params.TransactionID == "" {
		errs.Add("transaction_id", "is required")
	}
	if params.Type.IsValid() && !modeAllowed(params.Type, params.PaymentMode, params.RestrictNegativeModes) {
		errs.Add("payment_mode", "is not included in the list")
	}
	if errs.HasErrors() {
		return nil, errs
	}

	balance, err := policyFor(params.Type).effectiveBalance(params.PriorBalance, params.Amount)
	if err != nil {
		errs.Add("balance", "must be greater than or equal to 0")
		return nil, errs
	}

	now := time.Now()
	return &StoreCredit{
		id:            uuid.New(),
		entryType:     params.Type,
		amount:        params.Amount,
		balance:       balance,
		paymentMode:   params.PaymentMode,
		reason:        params.Reason,
		transactionID: params.TransactionID,
		userID:        params.UserID,
		transactioner: params.Transactioner,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func modeAllowed(t EntryType, mode PaymentMode, restrictNegative bool) bool {
	for _, m := range t.AllowedModes(restrictNegative) {
		if m == mode {
			return true
		}
	}
	return false
}

// ReconstructStoreCredit rehydrates an entry from storage.
func ReconstructStoreCredit(
	id uuid.UUID,
	entryType EntryType,
	amount, balance valueobjects.Money,
	paymentMode PaymentMode,
	reason, transactionID string,
	userID uuid.UUID,
	transactioner *uuid.UUID,
	createdAt, updatedAt time.Time,
) *StoreCredit {
	return &StoreCredit{
		id:            id,
		entryType:     entryType,
		amount:        amount,
		balance:       balance,
		paymentMode:   paymentMode,
		reason:        reason,
		transactionID: transactionID,
		userID:        userID,
		transactioner: transactioner,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// Getters

func (s *StoreCredit) ID() uuid.UUID                  { return s.id }
func (s *StoreCredit) Type() EntryType                { return s.entryType }
func (s *StoreCredit) Amount() valueobjects.Money     { return s.amount }
func (s *StoreCredit) Balance() valueobjects.Money    { return s.balance }
func (s *StoreCredit) PaymentMode() PaymentMode       { return s.paymentMode }
func (s *StoreCredit) Reason() string                 { return s.reason }
func (s *StoreCredit) TransactionID() string          { return s.transactionID }
func (s *StoreCredit) UserID() uuid.UUID              { return s.userID }
func (s *StoreCredit) TransactionerID() *uuid.UUID    { return s.transactioner }
func (s *StoreCredit) CreatedAt() time.Time           { return s.createdAt }
func (s *StoreCredit) UpdatedAt() time.Time           { return s.updatedAt }

// UpdateReason edits the entry's free-text reason. Reason is the only field
// that may change after creation.
func (s *StoreCredit) UpdateReason(reason string) error {
	if reason == "" {
		return errors.ValidationError{Field: "reason", Message: "is required"}
	}
	s.reason = reason
	s.updatedAt = time.Now()
	return nil
}

// GenerateTransactionID produces a candidate transaction id: unix-seconds
// prefix plus six random digits, truncated to 15 characters. Uniqueness is
// the caller's responsibility (collision-check against storage, bounded
// regenerate-on-collision loop).
func GenerateTransactionID(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the platform CSPRNG is unusable;
		// minting ids without it is not an option.
		panic(fmt.Sprintf("transaction id entropy unavailable: %v", err))
	}
	id := fmt.Sprintf("%d%06d", now.Unix(), n)
	if len(id) > 15 {
		id = id[:15]
	}
	return id
}
