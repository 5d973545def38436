package trading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/trading"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPositionRepository is a mock implementation of trading.Repository
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) FindByID(ctx context.Context, id uuid.UUID) (*trading.Position, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trading.Position), args.Error(1)
}

func (m *MockPositionRepository) FindByStatus(ctx context.Context, status trading.Status) ([]trading.Position, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]trading.Position), args.Error(1)
}

func (m *MockPositionRepository) FindByEntity(ctx context.Context, entityID uuid.UUID, filter shared.Filter) ([]trading.Position, error) {
	args := m.Called(ctx, entityID, filter)
	return args.Get(0).([]trading.Position), args.Error(1)
}

func (m *MockPositionRepository) CountByEntity(ctx context.Context, entityID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, entityID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPositionRepository) FindOpenBySymbol(ctx context.Context, symbol string) ([]trading.Position, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).([]trading.Position), args.Error(1)
}

func (m *MockPositionRepository) Save(ctx context.Context, position *trading.Position) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

// MockEntityRepository answers the lookups and saves positions need
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

type MockAccountTypeRepository struct {
	mock.Mock
	accounttype.Repository
}

func (m *MockAccountTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounttype.AccountType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounttype.AccountType), args.Error(1)
}

// inlineTx runs the unit of work directly and counts calls
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

type fixture struct {
	positions    *MockPositionRepository
	entities     *MockEntityRepository
	accountTypes *MockAccountTypeRepository
	tx           *inlineTx
	events       *recordingPublisher
	service      *PositionService
	now          time.Time
}

func newFixture() *fixture {
	f := &fixture{
		positions:    new(MockPositionRepository),
		entities:     new(MockEntityRepository),
		accountTypes: new(MockAccountTypeRepository),
		tx:           &inlineTx{},
		events:       &recordingPublisher{},
		now:          time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	f.service = NewPositionService(f.positions, f.entities, f.accountTypes, f.tx, f.events, zap.NewNop())
	f.service.now = func() time.Time { return f.now }
	return f
}

// newClient returns a funded client with no pending events
func newClient(t *testing.T, accountTypeID *uuid.UUID) *lead.Entity {
	t.Helper()
	e, err := lead.NewEntity(lead.NewEntityInput{
		FirstName:     "Jonas",
		LastName:      "Berg",
		Email:         "jonas@example.com",
		AccountTypeID: accountTypeID,
	})
	require.NoError(t, err)
	_, err = e.Deposit(decimal.NewFromInt(1000), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	e.ClearDomainEvents()
	return e
}

func newStandardType(t *testing.T) *accounttype.AccountType {
	t.Helper()
	at, err := accounttype.NewAccountType("Standard", "USD", decimal.NewFromInt(250), 100)
	require.NoError(t, err)
	_, err = at.UpsertRule(accounttype.AssetRuleInput{
		AssetClass:       accounttype.AssetForex,
		Leverage:         30,
		CommissionPerLot: decimal.NewFromInt(7),
		MaxVolume:        decimal.NewFromInt(10),
		Enabled:          true,
	})
	require.NoError(t, err)
	_, err = at.UpsertRule(accounttype.AssetRuleInput{AssetClass: accounttype.AssetCrypto, Leverage: 2})
	require.NoError(t, err)
	return at
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
