package ledger

import (
	"context"
	"fmt"

	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/application/ports"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ListEntriesUseCase pages through ledger history, newest first.
type ListEntriesUseCase struct {
	entryRepo ports.StoreCreditRepository
}

// NewListEntriesUseCase creates the history reader.
func NewListEntriesUseCase(entryRepo ports.StoreCreditRepository) *ListEntriesUseCase {
	return &ListEntriesUseCase{entryRepo: entryRepo}
}

// Execute lists entries matching the query.
func (uc *ListEntriesUseCase) Execute(ctx context.Context, query dtos.ListEntriesQuery) ([]dtos.StoreCreditDTO, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	offset := (page - 1) * perPage

	entries, err := uc.entryRepo.List(ctx, ports.StoreCreditFilter{
		UserID:    query.UserID,
		EntryType: query.Type,
	}, offset, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return dtos.ToStoreCreditDTOList(entries), nil
}
