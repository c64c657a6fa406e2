package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/domain/entities"
	domainErrors "github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/events"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// In-memory fakes shared by the payment use case tests.

// fakeLedger records fund movements and maintains a running balance so
// returned entries carry realistic balances.
type fakeLedger struct {
	mu       sync.Mutex
	balance  valueobjects.Money
	consumed []ledgerCall
	released []ledgerCall
	failWith error
}

type ledgerCall struct {
	userID uuid.UUID
	amount valueobjects.Money
	reason string
}

func newFakeLedger(balance string) *fakeLedger {
	return &fakeLedger{balance: valueobjects.MustMoney(balance)}
}

func (l *fakeLedger) ConsumeFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	newBalance, err := l.balance.Subtract(amount)
	if err != nil {
		return nil, domainErrors.ErrBalanceBelowZero
	}
	l.balance = newBalance
	l.consumed = append(l.consumed, ledgerCall{userID, amount, reason})
	return l.entry(entities.EntryTypeDebit, entities.PaymentModeOrderPurchase, userID, amount, reason)
}

func (l *fakeLedger) ReleaseFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.balance = l.balance.Add(amount)
	l.released = append(l.released, ledgerCall{userID, amount, reason})
	return l.entry(entities.EntryTypeCredit, entities.PaymentModePaymentRefund, userID, amount, reason)
}

func (l *fakeLedger) entry(t entities.EntryType, mode entities.PaymentMode, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error) {
	return entities.ReconstructStoreCredit(
		uuid.New(), t, amount, l.balance, mode, reason,
		uuid.New().String()[:15], userID, nil, time.Now(), time.Now(),
	), nil
}

// memPaymentRepo stores payments by id.
type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*entities.Payment
	updates  int
}

func newMemPaymentRepo(payments ...*entities.Payment) *memPaymentRepo {
	repo := &memPaymentRepo{payments: make(map[uuid.UUID]*entities.Payment)}
	for _, p := range payments {
		repo.payments[p.ID()] = p
	}
	return repo
}

func (m *memPaymentRepo) Save(ctx context.Context, p *entities.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID()] = p
	return nil
}

func (m *memPaymentRepo) Update(ctx context.Context, p *entities.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	m.payments[p.ID()] = p
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrEntityNotFound
	}
	return p, nil
}

func (m *memPaymentRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*entities.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Payment
	for _, p := range m.payments {
		if p.OrderID() == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

// memOrderRepo stores orders by id.
type memOrderRepo struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*entities.Order
	updates int
}

func newMemOrderRepo(orders ...*entities.Order) *memOrderRepo {
	repo := &memOrderRepo{orders: make(map[uuid.UUID]*entities.Order)}
	for _, o := range orders {
		repo.orders[o.ID()] = o
	}
	return repo
}

func (m *memOrderRepo) Save(ctx context.Context, o *entities.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID()] = o
	return nil
}

func (m *memOrderRepo) Update(ctx context.Context, o *entities.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	m.orders[o.ID()] = o
	return nil
}

func (m *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrEntityNotFound
	}
	return o, nil
}

func (m *memOrderRepo) FindByNumber(ctx context.Context, number string) (*entities.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.Number() == number {
			return o, nil
		}
	}
	return nil, domainErrors.ErrEntityNotFound
}

// fakeGateway answers capture/void/credit with configurable behavior.
type fakeGateway struct {
	captureFunc func(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error)
	voidFunc    func(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error)
	creditFunc  func(ctx context.Context, p *entities.Payment, cents int64) (entities.MethodResponse, error)
}

func (g *fakeGateway) Capture(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
	if g.captureFunc != nil {
		return g.captureFunc(ctx, p)
	}
	return entities.MethodResponse{Success: true}, nil
}

func (g *fakeGateway) Void(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
	if g.voidFunc != nil {
		return g.voidFunc(ctx, p)
	}
	return entities.MethodResponse{Success: true}, nil
}

func (g *fakeGateway) Credit(ctx context.Context, p *entities.Payment, cents int64) (entities.MethodResponse, error) {
	if g.creditFunc != nil {
		return g.creditFunc(ctx, p, cents)
	}
	return entities.MethodResponse{Success: true}, nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) byType(eventType string) []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// passthroughUoW runs the function directly.
type passthroughUoW struct{}

func (u *passthroughUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (u *passthroughUoW) InTransaction(context.Context) bool { return false }

// Aggregate builders.

func testOrder(t string, userID *uuid.UUID) *entities.Order {
	order, err := entities.NewOrder("R100000001", "buyer@example.com", userID, valueobjects.MustMoney(t))
	if err != nil {
		panic(err)
	}
	return order
}

func testWalletPayment(order *entities.Order, userID uuid.UUID, amount, balance string) *entities.Payment {
	p, err := entities.NewPayment(entities.NewPaymentParams{
		OrderID:        order.ID(),
		OrderNumber:    order.Number(),
		UserID:         &userID,
		Amount:         valueobjects.MustMoney(amount),
		MethodKind:     entities.MethodKindWallet,
		RemainingTotal: order.RemainingTotal(),
		UserBalance:    valueobjects.MustMoney(balance),
	})
	if err != nil {
		panic(err)
	}
	order.AttachPayment(p)
	return p
}

func testCardPayment(order *entities.Order, amount string) *entities.Payment {
	userID := order.UserID()
	p, err := entities.NewPayment(entities.NewPaymentParams{
		OrderID:        order.ID(),
		OrderNumber:    order.Number(),
		UserID:         userID,
		Amount:         valueobjects.MustMoney(amount),
		MethodKind:     entities.MethodKindCard,
		RemainingTotal: order.RemainingTotal(),
	})
	if err != nil {
		panic(err)
	}
	order.AttachPayment(p)
	return p
}

func newTestProcessor(ledger *fakeLedger, gateway *fakeGateway, paymentRepo *memPaymentRepo, publisher *recordingPublisher) *Processor {
	return NewProcessor(
		paymentRepo,
		ledger,
		gateway,
		publisher,
		entities.NewWalletMethod(refunderFromLedger{ledger}),
		&passthroughUoW{},
	)
}

// refunderFromLedger adapts fakeLedger to the refund-only surface.
type refunderFromLedger struct{ ledger *fakeLedger }

func (r refunderFromLedger) ReleaseFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) error {
	_, err := r.ledger.ReleaseFunds(ctx, userID, amount, reason)
	return err
}
