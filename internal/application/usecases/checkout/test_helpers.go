package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/ports"
	paymentuc "github.com/commercekit/walletpay/internal/application/usecases/payment"
	"github.com/commercekit/walletpay/internal/domain/entities"
	domainErrors "github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/events"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// In-memory fakes shared by the checkout use case tests.

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*entities.Order
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
	return m.Save(ctx, o)
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

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entities.User
}

func newMemUserRepo(users ...*entities.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[uuid.UUID]*entities.User)}
	for _, u := range users {
		repo.users[u.ID()] = u
	}
	return repo
}

func (m *memUserRepo) Save(ctx context.Context, u *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID()] = u
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domainErrors.ErrEntityNotFound
	}
	return u, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *memUserRepo) UpdateBalance(ctx context.Context, u *entities.User) error {
	return m.Save(ctx, u)
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*entities.Payment
	saves    int
	updates  int
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]*entities.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, p *entities.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
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

// fakeLedger tracks a running balance and records movements.
type fakeLedger struct {
	mu       sync.Mutex
	balance  valueobjects.Money
	consumed []string // reasons
	released []string
}

func newFakeLedger(balance string) *fakeLedger {
	return &fakeLedger{balance: valueobjects.MustMoney(balance)}
}

func (l *fakeLedger) ConsumeFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	newBalance, err := l.balance.Subtract(amount)
	if err != nil {
		return nil, domainErrors.ErrBalanceBelowZero
	}
	l.balance = newBalance
	l.consumed = append(l.consumed, reason)
	return l.entry(entities.EntryTypeDebit, entities.PaymentModeOrderPurchase, userID, amount, reason), nil
}

func (l *fakeLedger) ReleaseFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) (*entities.StoreCredit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = l.balance.Add(amount)
	l.released = append(l.released, reason)
	return l.entry(entities.EntryTypeCredit, entities.PaymentModePaymentRefund, userID, amount, reason), nil
}

func (l *fakeLedger) entry(t entities.EntryType, mode entities.PaymentMode, userID uuid.UUID, amount valueobjects.Money, reason string) *entities.StoreCredit {
	return entities.ReconstructStoreCredit(
		uuid.New(), t, amount, l.balance, mode, reason,
		uuid.New().String()[:15], userID, nil, time.Now(), time.Now(),
	)
}

type fakeGateway struct {
	captureFunc func(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error)
	captures    int
}

func (g *fakeGateway) Capture(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
	g.captures++
	if g.captureFunc != nil {
		return g.captureFunc(ctx, p)
	}
	return entities.MethodResponse{Success: true}, nil
}

func (g *fakeGateway) Void(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
	return entities.MethodResponse{Success: true}, nil
}

func (g *fakeGateway) Credit(ctx context.Context, p *entities.Payment, cents int64) (entities.MethodResponse, error) {
	return entities.MethodResponse{Success: true}, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event events.DomainEvent) error { return nil }
func (nopPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return nil
}

type passthroughUoW struct{}

func (passthroughUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (passthroughUoW) InTransaction(context.Context) bool { return false }

// Aggregate builders.

func testUser(balance string) *entities.User {
	return entities.ReconstructUser(
		uuid.New(), "user@example.com", valueobjects.MustMoney(balance), 0, time.Now(), time.Now(),
	)
}

func testOrder(total string, userID *uuid.UUID) *entities.Order {
	order, err := entities.NewOrder("R200000001", "buyer@example.com", userID, valueobjects.MustMoney(total))
	if err != nil {
		panic(err)
	}
	return order
}

func newTestProcessor(ledger ports.WalletLedger, gateway ports.PaymentGateway, paymentRepo ports.PaymentRepository) *paymentuc.Processor {
	refunder := walletRefunder{ledger}
	return paymentuc.NewProcessor(
		paymentRepo, ledger, gateway, nopPublisher{},
		entities.NewWalletMethod(refunder), passthroughUoW{},
	)
}

type walletRefunder struct{ ledger ports.WalletLedger }

func (r walletRefunder) ReleaseFunds(ctx context.Context, userID uuid.UUID, amount valueobjects.Money, reason string) error {
	_, err := r.ledger.ReleaseFunds(ctx, userID, amount, reason)
	return err
}
