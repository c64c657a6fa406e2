package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/domain/entities"
	domainErrors "github.com/commercekit/walletpay/internal/domain/errors"
)

func TestUpdateReason_Success(t *testing.T) {
	ctx := context.Background()
	repo := &memEntryRepo{}
	entry := seedEntry(t, repo, uuid.New(), entities.EntryTypeCredit, "10.00", "0.00")
	uc := NewUpdateReasonUseCase(repo)

	result, err := uc.Execute(ctx, dtos.UpdateReasonCommand{EntryID: entry.ID(), Reason: "corrected note"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Reason != "corrected note" {
		t.Errorf("Expected updated reason, got %s", result.Reason)
	}
	if entry.Reason() != "corrected note" {
		t.Errorf("Expected entity updated, got %s", entry.Reason())
	}
}

func TestUpdateReason_EmptyRejected(t *testing.T) {
	ctx := context.Background()
	repo := &memEntryRepo{}
	entry := seedEntry(t, repo, uuid.New(), entities.EntryTypeCredit, "10.00", "0.00")
	uc := NewUpdateReasonUseCase(repo)

	_, err := uc.Execute(ctx, dtos.UpdateReasonCommand{EntryID: entry.ID(), Reason: ""})
	if !domainErrors.IsValidation(err) {
		t.Fatalf("Expected validation error, got: %v", err)
	}
	if entry.Reason() != "seed" {
		t.Errorf("Expected reason unchanged, got %s", entry.Reason())
	}
}

func TestUpdateReason_NotFound(t *testing.T) {
	ctx := context.Background()
	uc := NewUpdateReasonUseCase(&memEntryRepo{})

	_, err := uc.Execute(ctx, dtos.UpdateReasonCommand{EntryID: uuid.New(), Reason: "x"})
	if !domainErrors.IsNotFound(err) {
		t.Fatalf("Expected not-found error, got: %v", err)
	}
}
