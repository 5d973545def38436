package finance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTransactionRepository is a mock implementation of finance.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Transaction, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) FindAllRecords(ctx context.Context) ([]finance.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]finance.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, transaction *finance.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

// MockGatewayRepository is a mock implementation of finance.GatewayRepository
type MockGatewayRepository struct {
	mock.Mock
}

func (m *MockGatewayRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Gateway, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Gateway), args.Error(1)
}

func (m *MockGatewayRepository) FindAll(ctx context.Context, enabledOnly bool) ([]finance.Gateway, error) {
	args := m.Called(ctx, enabledOnly)
	return args.Get(0).([]finance.Gateway), args.Error(1)
}

func (m *MockGatewayRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGatewayRepository) Save(ctx context.Context, gateway *finance.Gateway) error {
	args := m.Called(ctx, gateway)
	return args.Error(0)
}

func (m *MockGatewayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGatewayRepository) IsInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockEntityRepository answers the lookups and saves transactions need
type MockEntityRepository struct {
	mock.Mock
	lead.EntityRepository
}

func (m *MockEntityRepository) FindByID(ctx context.Context, id uuid.UUID) (*lead.Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Entity), args.Error(1)
}

func (m *MockEntityRepository) SaveWithLock(ctx context.Context, entity *lead.Entity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

type inlineTx struct {
	calls int
}

func (t *inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type txFixture struct {
	transactions *MockTransactionRepository
	entities     *MockEntityRepository
	gateways     *MockGatewayRepository
	tx           *inlineTx
	events       *recordingPublisher
	service      *TransactionService
	now          time.Time
}

func newTxFixture(cfg config.FinanceConfig) *txFixture {
	f := &txFixture{
		transactions: new(MockTransactionRepository),
		entities:     new(MockEntityRepository),
		gateways:     new(MockGatewayRepository),
		tx:           &inlineTx{},
		events:       &recordingPublisher{},
		now:          time.Date(2025, 4, 2, 11, 0, 0, 0, time.UTC),
	}
	f.service = NewTransactionService(f.transactions, f.entities, f.gateways, f.tx, cfg, f.events, zap.NewNop())
	f.service.now = func() time.Time { return f.now }
	return f
}

func newLead(t *testing.T) *lead.Entity {
	t.Helper()
	e, err := lead.NewEntity(lead.NewEntityInput{FirstName: "Sofia", LastName: "Rossi", Email: "sofia@example.com"})
	require.NoError(t, err)
	e.ClearDomainEvents()
	return e
}

func newCardGateway(t *testing.T) *finance.Gateway {
	t.Helper()
	g, err := finance.NewGateway(finance.GatewayInput{
		Name:            "Cards",
		Provider:        "acquirer",
		Currencies:      []string{"usd", "eur"},
		SupportsDeposit: true,
		MinAmount:       decimal.NewFromInt(50),
		MaxAmount:       decimal.NewFromInt(10000),
		Enabled:         true,
	})
	require.NoError(t, err)
	return g
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
