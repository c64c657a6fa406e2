package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrors_Add(t *testing.T) {
	var errs ValidationErrors

	if errs.HasErrors() {
		t.Error("empty collection should have no errors")
	}
	if errs.ErrOrNil() != nil {
		t.Error("ErrOrNil() on empty collection should be nil")
	}

	errs.Add("amount", "is required")
	errs.Add("reason", "is required")

	if !errs.HasErrors() {
		t.Error("collection should report errors after Add")
	}
	if len(errs) != 2 {
		t.Errorf("len = %d, want 2", len(errs))
	}
	if errs.ErrOrNil() == nil {
		t.Error("ErrOrNil() should return the collection")
	}
}

func TestIsValidation(t *testing.T) {
	single := ValidationError{Field: "amount", Message: "is required"}
	var many ValidationErrors
	many.Add("user", "is required")

	if !IsValidation(single) {
		t.Error("single ValidationError not recognized")
	}
	if !IsValidation(many) {
		t.Error("ValidationErrors not recognized")
	}
	if !IsValidation(fmt.Errorf("create entry: %w", single)) {
		t.Error("wrapped ValidationError not recognized")
	}
	if IsValidation(errors.New("boom")) {
		t.Error("plain error misclassified as validation")
	}
}

func TestIsStaleWrite(t *testing.T) {
	err := NewStaleWrite("User", "abc", 4)

	if !IsStaleWrite(err) {
		t.Error("StaleWriteError not recognized")
	}
	if !IsStaleWrite(fmt.Errorf("write balance: %w", err)) {
		t.Error("wrapped StaleWriteError not recognized")
	}
	if IsStaleWrite(ErrEntityNotFound) {
		t.Error("sentinel misclassified as stale write")
	}
}

func TestGatewayError(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewGatewayError("CARD_DECLINED", "card was declined", inner)

	if !IsGatewayError(err) {
		t.Error("GatewayError not recognized")
	}
	if !errors.Is(err, inner) {
		t.Error("GatewayError should unwrap to inner error")
	}
	if IsGatewayError(ErrGuestWallet) {
		t.Error("sentinel misclassified as gateway error")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("load user: %w", ErrEntityNotFound)) {
		t.Error("wrapped ErrEntityNotFound not recognized")
	}
	if IsNotFound(ErrWalletNotLinked) {
		t.Error("unrelated sentinel misclassified")
	}
}
