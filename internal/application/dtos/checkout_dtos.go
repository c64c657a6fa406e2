package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// PaymentLineItem is one submitted payment row from checkout, before the
// wallet split assigns amounts.
type PaymentLineItem struct {
	MethodKind entities.MethodKind
	Amount     valueobjects.Money
}

// BuildPaymentsCommand asks the reconciler to split an order's due amount
// across the submitted payment line items. UserID is nil for guests.
type BuildPaymentsCommand struct {
	OrderID uuid.UUID
	UserID  *uuid.UUID
	Items   []PaymentLineItem
}

// ValidatePaymentsCommand runs the pre-split checkout gate.
type ValidatePaymentsCommand struct {
	OrderID uuid.UUID
	UserID  *uuid.UUID
	Items   []PaymentLineItem
}

// CreatePaymentCommand creates one payment on an order (admin flow).
type CreatePaymentCommand struct {
	OrderID    uuid.UUID
	MethodKind entities.MethodKind
	Amount     valueobjects.Money
}

// RefundPaymentCommand refunds part of a completed payment, in minor units.
type RefundPaymentCommand struct {
	PaymentID   uuid.UUID
	AmountCents int64
}

// PaymentDTO is the outward representation of a payment.
type PaymentDTO struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Amount      string    `json:"amount"`
	MethodKind  string    `json:"payment_method"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderDTO is the outward representation of an order.
type OrderDTO struct {
	ID               string       `json:"id"`
	Number           string       `json:"number"`
	State            string       `json:"state"`
	Total            string       `json:"total"`
	PaymentTotal     string       `json:"payment_total"`
	RemainingTotal   string       `json:"remaining_total"`
	GatewayErrorNote string       `json:"gateway_error_note,omitempty"`
	Payments         []PaymentDTO `json:"payments,omitempty"`
}
