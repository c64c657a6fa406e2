// Package events defines the domain events the wallet core raises.
// Events are immutable facts about what already happened; downstream
// consumers (notifications, reporting) react to them asynchronously.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// DomainEvent is the base contract for all events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
}

// BaseEvent carries the fields every event shares.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.eventID }
func (e BaseEvent) EventType() string      { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time  { return e.occurredAt }
func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }

// Event type constants; these double as the message subjects on the bus.
const (
	EventTypeStoreCreditEntered = "storecredit.entered"
	EventTypeWalletDebited      = "wallet.debited"
	EventTypeWalletCredited     = "wallet.credited"
	EventTypePaymentCompleted   = "payment.completed"
	EventTypePaymentVoided      = "payment.voided"
	EventTypeOrderCompleted     = "order.completed"
	EventTypeOrderCanceled      = "order.canceled"
)

// StoreCreditEntered is raised for every ledger entry, credit or debit.
type StoreCreditEntered struct {
	BaseEvent
	UserID        uuid.UUID
	EntryType     entities.EntryType
	Amount        valueobjects.Money
	Balance       valueobjects.Money
	PaymentMode   entities.PaymentMode
	TransactionID string
}

func NewStoreCreditEntered(entry *entities.StoreCredit) *StoreCreditEntered {
	return &StoreCreditEntered{
		BaseEvent:     newBaseEvent(EventTypeStoreCreditEntered, entry.ID()),
		UserID:        entry.UserID(),
		EntryType:     entry.Type(),
		Amount:        entry.Amount(),
		Balance:       entry.Balance(),
		PaymentMode:   entry.PaymentMode(),
		TransactionID: entry.TransactionID(),
	}
}

// WalletDebited is raised when order payment consumes wallet funds.
type WalletDebited struct {
	BaseEvent
	UserID      uuid.UUID
	Amount      valueobjects.Money
	NewBalance  valueobjects.Money
	OrderNumber string
}

func NewWalletDebited(userID uuid.UUID, amount, newBalance valueobjects.Money, orderNumber string) *WalletDebited {
	return &WalletDebited{
		BaseEvent:   newBaseEvent(EventTypeWalletDebited, userID),
		UserID:      userID,
		Amount:      amount,
		NewBalance:  newBalance,
		OrderNumber: orderNumber,
	}
}

// WalletCredited is raised when funds return to a wallet (void, refund,
// manual deposit).
type WalletCredited struct {
	BaseEvent
	UserID      uuid.UUID
	Amount      valueobjects.Money
	NewBalance  valueobjects.Money
	OrderNumber string
}

func NewWalletCredited(userID uuid.UUID, amount, newBalance valueobjects.Money, orderNumber string) *WalletCredited {
	return &WalletCredited{
		BaseEvent:   newBaseEvent(EventTypeWalletCredited, userID),
		UserID:      userID,
		Amount:      amount,
		NewBalance:  newBalance,
		OrderNumber: orderNumber,
	}
}

// PaymentCompleted is raised when a payment captures funds.
type PaymentCompleted struct {
	BaseEvent
	OrderID    uuid.UUID
	Amount     valueobjects.Money
	MethodKind entities.MethodKind
}

func NewPaymentCompleted(paymentID, orderID uuid.UUID, amount valueobjects.Money, kind entities.MethodKind) *PaymentCompleted {
	return &PaymentCompleted{
		BaseEvent:  newBaseEvent(EventTypePaymentCompleted, paymentID),
		OrderID:    orderID,
		Amount:     amount,
		MethodKind: kind,
	}
}

// PaymentVoided is raised when a payment is reversed.
type PaymentVoided struct {
	BaseEvent
	OrderID    uuid.UUID
	Amount     valueobjects.Money
	MethodKind entities.MethodKind
}

func NewPaymentVoided(paymentID, orderID uuid.UUID, amount valueobjects.Money, kind entities.MethodKind) *PaymentVoided {
	return &PaymentVoided{
		BaseEvent:  newBaseEvent(EventTypePaymentVoided, paymentID),
		OrderID:    orderID,
		Amount:     amount,
		MethodKind: kind,
	}
}

// OrderCompleted is raised when an order finishes checkout.
type OrderCompleted struct {
	BaseEvent
	Number string
}

func NewOrderCompleted(orderID uuid.UUID, number string) *OrderCompleted {
	return &OrderCompleted{
		BaseEvent: newBaseEvent(EventTypeOrderCompleted, orderID),
		Number:    number,
	}
}

// OrderCanceled is raised when an order is canceled.
type OrderCanceled struct {
	BaseEvent
	Number string
}

func NewOrderCanceled(orderID uuid.UUID, number string) *OrderCanceled {
	return &OrderCanceled{
		BaseEvent: newBaseEvent(EventTypeOrderCanceled, orderID),
		Number:    number,
	}
}
