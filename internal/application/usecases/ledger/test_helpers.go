package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/entities"
	domainErrors "github.com/commercekit/walletpay/internal/domain/errors"
	"github.com/commercekit/walletpay/internal/domain/events"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// In-memory fakes shared by the ledger use case tests.

// memUserRepo stores users and mimics the optimistic-lock behavior of the
// real repository: FindByID returns a fresh copy of the committed state, and
// UpdateBalance can be told to lose the race a number of times.
type memUserRepo struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*entities.User
	staleFailures int
	updateCalls   int
}

func newMemUserRepo(users ...*entities.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[uuid.UUID]*entities.User)}
	for _, u := range users {
		repo.users[u.ID()] = u
	}
	return repo
}

func (m *memUserRepo) Save(ctx context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID()] = user
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, domainErrors.ErrEntityNotFound
	}
	return copyUser(user), nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email() == email {
			return copyUser(user), nil
		}
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *memUserRepo) UpdateBalance(ctx context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.staleFailures > 0 {
		m.staleFailures--
		return domainErrors.NewStaleWrite("user", user.ID().String(), user.LockVersion()-1)
	}
	m.users[user.ID()] = copyUser(user)
	return nil
}

func copyUser(u *entities.User) *entities.User {
	return entities.ReconstructUser(
		u.ID(), u.Email(), u.StoreCreditsTotal(), u.LockVersion(), u.CreatedAt(), u.UpdatedAt(),
	)
}

// memEntryRepo stores ledger entries. alwaysCollide forces every transaction
// id probe to report a collision.
type memEntryRepo struct {
	mu            sync.Mutex
	entries       []*entities.StoreCredit
	alwaysCollide bool
	collideFirst  int
	existsCalls   int
	lastOffset    int
	lastLimit     int
}

func (m *memEntryRepo) Save(ctx context.Context, entry *entities.StoreCredit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memEntryRepo) UpdateReason(ctx context.Context, entry *entities.StoreCredit) error {
	return nil
}

func (m *memEntryRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.StoreCredit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.ID() == id {
			return entry, nil
		}
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *memEntryRepo) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.alwaysCollide {
		return true, nil
	}
	if m.collideFirst > 0 {
		m.collideFirst--
		return true, nil
	}
	for _, entry := range m.entries {
		if entry.TransactionID() == transactionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memEntryRepo) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entities.StoreCredit, error) {
	var out []*entities.StoreCredit
	for _, entry := range m.entries {
		if entry.UserID() == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memEntryRepo) List(ctx context.Context, filter ports.StoreCreditFilter, offset, limit int) ([]*entities.StoreCredit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOffset, m.lastLimit = offset, limit

	var matched []*entities.StoreCredit
	for _, entry := range m.entries {
		if filter.UserID != nil && entry.UserID() != *filter.UserID {
			continue
		}
		if filter.EntryType != nil && entry.Type() != *filter.EntryType {
			continue
		}
		matched = append(matched, entry)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
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

// memCache is an in-memory BalanceCache recording invalidations.
type memCache struct {
	mu          sync.Mutex
	balances    map[uuid.UUID]valueobjects.Money
	invalidated []uuid.UUID
	getCalls    int
}

func newMemCache() *memCache {
	return &memCache{balances: make(map[uuid.UUID]valueobjects.Money)}
}

func (c *memCache) Get(ctx context.Context, userID uuid.UUID) (valueobjects.Money, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	balance, ok := c.balances[userID]
	return balance, ok, nil
}

func (c *memCache) Set(ctx context.Context, userID uuid.UUID, balance valueobjects.Money) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[userID] = balance
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.balances, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

// passthroughUoW runs the function directly and counts executions.
type passthroughUoW struct {
	executions int
}

func (u *passthroughUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	u.executions++
	return fn(ctx)
}

func (u *passthroughUoW) InTransaction(context.Context) bool { return false }

// joiningUoW mimics the database unit of work's join semantics: the first
// Execute marks the context, nested Executes see the mark and run their
// function directly, as if inside the caller's transaction.
type joiningUoW struct {
	executions int
}

type joinedTxKey struct{}

func (u *joiningUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	u.executions++
	if u.InTransaction(ctx) {
		return fn(ctx)
	}
	return fn(context.WithValue(ctx, joinedTxKey{}, true))
}

func (u *joiningUoW) InTransaction(ctx context.Context) bool {
	return ctx.Value(joinedTxKey{}) != nil
}

func testUser(balance string) *entities.User {
	return entities.ReconstructUser(
		uuid.New(), "user@example.com", valueobjects.MustMoney(balance), 0, time.Now(), time.Now(),
	)
}
