package dtos

import (
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// ToStoreCreditDTO converts a ledger entry into its DTO.
func ToStoreCreditDTO(entry *entities.StoreCredit) StoreCreditDTO {
	dto := StoreCreditDTO{
		ID:            entry.ID().String(),
		Type:          string(entry.Type()),
		Amount:        entry.Amount().String(),
		Balance:       entry.Balance().String(),
		PaymentMode:   int(entry.PaymentMode()),
		Reason:        entry.Reason(),
		TransactionID: entry.TransactionID(),
		UserID:        entry.UserID().String(),
		CreatedAt:     entry.CreatedAt(),
		UpdatedAt:     entry.UpdatedAt(),
	}

	if transactioner := entry.TransactionerID(); transactioner != nil {
		dto.Transactioner = transactioner.String()
	}

	return dto
}

// ToStoreCreditDTOList converts a list of ledger entries.
func ToStoreCreditDTOList(entries []*entities.StoreCredit) []StoreCreditDTO {
	result := make([]StoreCreditDTO, len(entries))
	for i, entry := range entries {
		result[i] = ToStoreCreditDTO(entry)
	}
	return result
}

// ToBalanceDTO builds the balance view for a user.
func ToBalanceDTO(userID string, balance valueobjects.Money) BalanceDTO {
	return BalanceDTO{
		UserID:  userID,
		Balance: balance.String(),
	}
}

// ToPaymentDTO converts a payment into its DTO.
func ToPaymentDTO(payment *entities.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          payment.ID().String(),
		OrderID:     payment.OrderID().String(),
		OrderNumber: payment.OrderNumber(),
		Amount:      payment.Amount().String(),
		MethodKind:  string(payment.MethodKind()),
		State:       string(payment.State()),
		CreatedAt:   payment.CreatedAt(),
	}
}

// ToPaymentDTOList converts a list of payments.
func ToPaymentDTOList(payments []*entities.Payment) []PaymentDTO {
	result := make([]PaymentDTO, len(payments))
	for i, payment := range payments {
		result[i] = ToPaymentDTO(payment)
	}
	return result
}

// ToOrderDTO converts an order, including its attached payments.
func ToOrderDTO(order *entities.Order) OrderDTO {
	return OrderDTO{
		ID:               order.ID().String(),
		Number:           order.Number(),
		State:            string(order.State()),
		Total:            order.Total().String(),
		PaymentTotal:     order.PaymentTotal().String(),
		RemainingTotal:   order.RemainingTotal().String(),
		GatewayErrorNote: order.GatewayErrorNote(),
		Payments:         ToPaymentDTOList(order.Payments()),
	}
}
