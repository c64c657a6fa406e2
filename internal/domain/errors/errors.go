// Package errors defines the typed errors the wallet core surfaces.
// Callers dispatch on error kind with errors.Is / errors.As; the core never
// decides user-facing messaging, it only reports kind and context.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain validation and checkout gating.
var (
	ErrEntityNotFound      = errors.New("entity not found")
	ErrEntityAlreadyExists = errors.New("entity already exists")

	// Checkout / reconciliation errors
	ErrGuestWallet             = errors.New("cannot pay by wallet without an identified user")
	ErrInsufficientWalletFunds = errors.New("wallet balance cannot cover the remaining order total")
	ErrWalletNotLinked         = errors.New("wallet payment is not linked to a user")

	// Ledger errors
	ErrTransactionIDExhausted = errors.New("could not generate a unique transaction id")
	ErrBalanceBelowZero       = errors.New("balance cannot drop below zero")
	ErrPaymentModeNotAllowed  = errors.New("payment mode not in the allowed set")

	// Payment lifecycle errors
	ErrInvalidStateTransition = errors.New("invalid payment state transition")
	ErrPaymentNotVoidable     = errors.New("payment cannot be voided")
	ErrPaymentNotCreditable   = errors.New("payment cannot be credited")
)

// ValidationError reports a field-level validation failure.
// The operation is aborted with no partial writes.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects several field failures into one error.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(e))
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if any field failed.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ErrOrNil returns the collection as an error, or nil when empty.
// Avoids the typed-nil-in-interface trap at call sites.
func (e ValidationErrors) ErrOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// StaleWriteError reports that a version-checked balance write lost the race
// against a concurrent ledger operation for the same user. The whole create
// operation was rolled back; the caller must re-read and retry, never merge.
type StaleWriteError struct {
	EntityType      string
	EntityID        string
	ExpectedVersion int64
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("stale write on %s [%s]: expected version %d was already advanced",
		e.EntityType, e.EntityID, e.ExpectedVersion)
}

// NewStaleWrite creates a StaleWriteError.
func NewStaleWrite(entityType, entityID string, expectedVersion int64) *StaleWriteError {
	return &StaleWriteError{
		EntityType:      entityType,
		EntityID:        entityID,
		ExpectedVersion: expectedVersion,
	}
}

// GatewayError reports a failure from an external payment processor.
// Caught at the order-processing boundary: either the checkout hard-fails
// (default) or, when configured, the order proceeds with the error annotated.
type GatewayError struct {
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway error [%s]: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a GatewayError.
func NewGatewayError(code, message string, err error) *GatewayError {
	return &GatewayError{Code: code, Message: message, Err: err}
}

// Helpers for common error checking.

// IsNotFound checks for an "entity not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsValidation checks whether err carries field-level validation failures.
func IsValidation(err error) bool {
	var one ValidationError
	var many ValidationErrors
	return errors.As(err, &one) || errors.As(err, &many)
}

// IsStaleWrite checks whether err is a lost optimistic-lock race.
func IsStaleWrite(err error) bool {
	var sw *StaleWriteError
	return errors.As(err, &sw)
}

// IsGatewayError checks whether err originated at the payment processor.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
