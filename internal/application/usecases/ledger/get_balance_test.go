package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"

	domainErrors "github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

func TestGetBalance_CacheHit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	cache := newMemCache()
	_ = cache.Set(ctx, userID, valueobjects.MustMoney("42.50"))

	// No users in the repo: a hit must never reach it.
	uc := NewGetBalanceUseCase(newMemUserRepo(), cache)

	result, err := uc.Execute(ctx, userID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Balance != "42.50" {
		t.Errorf("Expected 42.50, got %s", result.Balance)
	}
}

func TestGetBalance_MissPopulatesCache(t *testing.T) {
	ctx := context.Background()
	user := testUser("17.25")
	cache := newMemCache()
	uc := NewGetBalanceUseCase(newMemUserRepo(user), cache)

	result, err := uc.Execute(ctx, user.ID())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Balance != "17.25" {
		t.Errorf("Expected 17.25, got %s", result.Balance)
	}

	cached, ok, _ := cache.Get(ctx, user.ID())
	if !ok || !cached.Equals(valueobjects.MustMoney("17.25")) {
		t.Errorf("Expected cache populated with 17.25, got %v (present=%v)", cached, ok)
	}
}

func TestGetBalance_UserNotFound(t *testing.T) {
	ctx := context.Background()
	uc := NewGetBalanceUseCase(newMemUserRepo(), newMemCache())

	_, err := uc.Execute(ctx, uuid.New())
	if !domainErrors.IsNotFound(err) {
		t.Fatalf("Expected not-found error, got: %v", err)
	}
}
