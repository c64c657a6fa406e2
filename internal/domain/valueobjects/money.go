// Package valueobjects - Money represents a store-credit amount.
// Store credit is denominated in the store's base currency, so Money carries
// an amount only. All balances and ledger amounts in the system use it.
package valueobjects

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// Money is an arbitrary-precision decimal amount.
// Uses big.Rat to avoid floating-point errors (0.1 + 0.2 != 0.3).
//
// Value Object Pattern:
// - Immutable: all operations return new Money instances
// - Self-validating: cannot construct a negative Money
//
// Negative amounts are expressed structurally (a Debit ledger entry), never
// as a negative Money value.
type Money struct {
	amount *big.Rat
}

// Errors returned by Money operations.
var (
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrInvalidAmount      = errors.New("invalid amount format")
	ErrInsufficientAmount = errors.New("resulting amount would be negative")
)

// NewMoney parses a decimal string ("100.50", "0.001") into Money.
// Returns an error when the string is unparsable or negative.
func NewMoney(amountStr string) (Money, error) {
	amount := new(big.Rat)
	if _, ok := amount.SetString(amountStr); !ok {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amountStr)
	}

	if amount.Sign() < 0 {
		return Money{}, ErrNegativeAmount
	}

	return Money{amount: amount}, nil
}

// NewMoneyFromInt creates Money from a whole-unit integer amount.
func NewMoneyFromInt(amount int64) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: big.NewRat(amount, 1)}, nil
}

// NewMoneyFromCents creates Money from the smallest currency unit.
// This is the storage format in the database (BIGINT cents) and the unit
// payment processors report refundable amounts in.
func NewMoneyFromCents(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: big.NewRat(cents, 100)}, nil
}

// MustMoney parses a decimal string and panics on failure.
// Intended for constants and tests only.
func MustMoney(amountStr string) Money {
	m, err := NewMoney(amountStr)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{amount: big.NewRat(0, 1)}
}

// Amount returns a copy of the underlying rational, preserving immutability.
func (m Money) Amount() *big.Rat {
	return new(big.Rat).Set(m.rat())
}

// rat tolerates the zero value of Money so that uninitialized amounts behave
// as zero instead of panicking.
func (m Money) rat() *big.Rat {
	if m.amount == nil {
		return big.NewRat(0, 1)
	}
	return m.amount
}

// String renders the amount with two decimal places, e.g. "100.50".
func (m Money) String() string {
	return m.rat().FloatString(2)
}

// Float64 returns the amount as float64. Display purposes only.
func (m Money) Float64() float64 {
	f, _ := m.rat().Float64()
	return f
}

// Cents returns the amount in the smallest currency unit, the database
// storage format.
func (m Money) Cents() int64 {
	scaled := new(big.Rat).Mul(m.rat(), big.NewRat(100, 1))
	return scaled.Num().Int64() / scaled.Denom().Int64()
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{amount: new(big.Rat).Add(m.rat(), other.rat())}
}

// Subtract returns the difference of two amounts.
// Returns ErrInsufficientAmount when the result would be negative. This is
// how "a balance never drops below zero" surfaces throughout the ledger.
func (m Money) Subtract(other Money) (Money, error) {
	diff := new(big.Rat).Sub(m.rat(), other.rat())
	if diff.Sign() < 0 {
		return Money{}, ErrInsufficientAmount
	}
	return Money{amount: diff}, nil
}

// Min returns the smaller of two amounts.
func Min(a, b Money) Money {
	if a.rat().Cmp(b.rat()) <= 0 {
		return a
	}
	return b
}

// IsZero returns true when the amount is zero.
func (m Money) IsZero() bool {
	return m.rat().Sign() == 0
}

// IsPositive returns true when the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.rat().Sign() > 0
}

// GreaterThan reports m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.rat().Cmp(other.rat()) > 0
}

// GreaterThanOrEqual reports m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.rat().Cmp(other.rat()) >= 0
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) bool {
	return m.rat().Cmp(other.rat()) < 0
}

// LessThanOrEqual reports m <= other.
func (m Money) LessThanOrEqual(other Money) bool {
	return m.rat().Cmp(other.rat()) <= 0
}

// Equals reports m == other.
func (m Money) Equals(other Money) bool {
	return m.rat().Cmp(other.rat()) == 0
}

// MarshalJSON renders the amount as a two-decimal string, the same format
// the API responses use.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON parses a two-decimal string amount.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
