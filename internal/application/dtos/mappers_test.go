package dtos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

func TestToStoreCreditDTO(t *testing.T) {
	userID := uuid.New()
	entry, err := entities.NewStoreCredit(entities.NewEntryParams{
		Type:          entities.EntryTypeCredit,
		Amount:        valueobjects.MustMoney("25.00"),
		AmountSet:     true,
		PriorBalance:  valueobjects.MustMoney("10.00"),
		PaymentMode:   entities.PaymentModeBank,
		Reason:        "bank deposit",
		UserID:        userID,
		TransactionID: "147000000012345",
	})
	require.NoError(t, err)

	dto := ToStoreCreditDTO(entry)

	assert.Equal(t, entry.ID().String(), dto.ID)
	assert.Equal(t, "CREDIT", dto.Type)
	assert.Equal(t, "25.00", dto.Amount)
	assert.Equal(t, "35.00", dto.Balance)
	assert.Equal(t, 1, dto.PaymentMode)
	assert.Equal(t, "bank deposit", dto.Reason)
	assert.Equal(t, "147000000012345", dto.TransactionID)
	assert.Equal(t, userID.String(), dto.UserID)
	assert.Empty(t, dto.Transactioner)
	assert.False(t, dto.CreatedAt.IsZero())
}

func TestToStoreCreditDTO_WithTransactioner(t *testing.T) {
	transactioner := uuid.New()
	entry, err := entities.NewStoreCredit(entities.NewEntryParams{
		Type:          entities.EntryTypeDebit,
		Amount:        valueobjects.MustMoney("5.00"),
		AmountSet:     true,
		PriorBalance:  valueobjects.MustMoney("20.00"),
		PaymentMode:   entities.PaymentModeDeduce,
		Reason:        "manual adjustment",
		UserID:        uuid.New(),
		Transactioner: &transactioner,
		TransactionID: "147000000054321",
	})
	require.NoError(t, err)

	dto := ToStoreCreditDTO(entry)

	assert.Equal(t, "DEBIT", dto.Type)
	assert.Equal(t, "15.00", dto.Balance)
	assert.Equal(t, transactioner.String(), dto.Transactioner)
}

func TestToStoreCreditDTOList(t *testing.T) {
	mk := func(amount string) *entities.StoreCredit {
		entry, err := entities.NewStoreCredit(entities.NewEntryParams{
			Type:          entities.EntryTypeCredit,
			Amount:        valueobjects.MustMoney(amount),
			AmountSet:     true,
			PriorBalance:  valueobjects.Zero(),
			PaymentMode:   entities.PaymentModeBank,
			Reason:        "deposit",
			UserID:        uuid.New(),
			TransactionID: entities.GenerateTransactionID(time.Now()),
		})
		require.NoError(t, err)
		return entry
	}

	entries := []*entities.StoreCredit{mk("1.00"), mk("2.00"), mk("3.00")}

	dtos := ToStoreCreditDTOList(entries)

	assert.Len(t, dtos, 3)
	assert.Equal(t, "1.00", dtos[0].Amount)
	assert.Equal(t, "2.00", dtos[1].Amount)
	assert.Equal(t, "3.00", dtos[2].Amount)
}

func TestToStoreCreditDTOList_Empty(t *testing.T) {
	var entries []*entities.StoreCredit

	dtos := ToStoreCreditDTOList(entries)

	assert.Len(t, dtos, 0)
	assert.NotNil(t, dtos)
}

func TestToBalanceDTO(t *testing.T) {
	userID := uuid.New()

	dto := ToBalanceDTO(userID.String(), valueobjects.MustMoney("42.50"))

	assert.Equal(t, userID.String(), dto.UserID)
	assert.Equal(t, "42.50", dto.Balance)
}

func TestToPaymentDTO(t *testing.T) {
	userID := uuid.New()
	payment, err := entities.NewPayment(entities.NewPaymentParams{
		OrderID:        uuid.New(),
		OrderNumber:    "R123456789",
		UserID:         &userID,
		Amount:         valueobjects.MustMoney("30.00"),
		MethodKind:     entities.MethodKindWallet,
		RemainingTotal: valueobjects.MustMoney("100.00"),
		UserBalance:    valueobjects.MustMoney("50.00"),
	})
	require.NoError(t, err)

	dto := ToPaymentDTO(payment)

	assert.Equal(t, payment.ID().String(), dto.ID)
	assert.Equal(t, "R123456789", dto.OrderNumber)
	assert.Equal(t, "30.00", dto.Amount)
	assert.Equal(t, "wallet", dto.MethodKind)
	assert.Equal(t, "checkout", dto.State)
}

func TestToOrderDTO(t *testing.T) {
	userID := uuid.New()
	order, err := entities.NewOrder("R987654321", "buyer@example.com", &userID, valueobjects.MustMoney("100.00"))
	require.NoError(t, err)

	payment, err := entities.NewPayment(entities.NewPaymentParams{
		OrderID:        order.ID(),
		OrderNumber:    order.Number(),
		UserID:         &userID,
		Amount:         valueobjects.MustMoney("40.00"),
		MethodKind:     entities.MethodKindCard,
		RemainingTotal: order.RemainingTotal(),
	})
	require.NoError(t, err)
	order.AttachPayment(payment)
	order.AddToPaymentTotal(valueobjects.MustMoney("40.00"))

	dto := ToOrderDTO(order)

	assert.Equal(t, "R987654321", dto.Number)
	assert.Equal(t, "payment", dto.State)
	assert.Equal(t, "100.00", dto.Total)
	assert.Equal(t, "40.00", dto.PaymentTotal)
	assert.Equal(t, "60.00", dto.RemainingTotal)
	require.Len(t, dto.Payments, 1)
	assert.Equal(t, "card", dto.Payments[0].MethodKind)
}
