package lead

import (
	"context"
	"sync"
	"testing"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEntityRepository is a mock implementation of lead.EntityRepository
type MockEntityRepository struct {
	mock.Mock
}

func (m *MockEntityRepository) FindByID(ctx context.Context, id uuid.UUID) (*lead.Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Entity), args.Error(1)
}

func (m *MockEntityRepository) FindByEmail(ctx context.Context, email string) (*lead.Entity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Entity), args.Error(1)
}

func (m *MockEntityRepository) FindAll(ctx context.Context, filter shared.Filter) ([]lead.Entity, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]lead.Entity), args.Error(1)
}

func (m *MockEntityRepository) FindByStage(ctx context.Context, stage lead.Stage) ([]lead.Entity, error) {
	args := m.Called(ctx, stage)
	return args.Get(0).([]lead.Entity), args.Error(1)
}

func (m *MockEntityRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntityRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntityRepository) Save(ctx context.Context, entity *lead.Entity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockEntityRepository) SaveWithLock(ctx context.Context, entity *lead.Entity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockEntityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository only answers FindByID; owner checks need nothing else
type MockUserRepository struct {
	mock.Mock
	identity.UserRepository
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

// MockAccountTypeRepository answers lookups used when linking entities
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

func (m *MockAccountTypeRepository) FindDefault(ctx context.Context) (*accounttype.AccountType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounttype.AccountType), args.Error(1)
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
	entities     *MockEntityRepository
	users        *MockUserRepository
	accountTypes *MockAccountTypeRepository
	events       *recordingPublisher
	service      *EntityService
}

func newFixture() *fixture {
	f := &fixture{
		entities:     new(MockEntityRepository),
		users:        new(MockUserRepository),
		accountTypes: new(MockAccountTypeRepository),
		events:       &recordingPublisher{},
	}
	f.service = NewEntityService(f.entities, f.users, f.accountTypes, f.events, zap.NewNop())
	return f
}

func newTestEntity(t *testing.T) *lead.Entity {
	t.Helper()
	e, err := lead.NewEntity(lead.NewEntityInput{FirstName: "Maria", LastName: "Papadopoulou", Email: "maria@example.com"})
	require.NoError(t, err)
	e.ClearDomainEvents()
	return e
}

func newAgent(t *testing.T) *identity.User {
	t.Helper()
	identity.BcryptCost = 4
	u, err := identity.NewUser("agent@broker.test", "Nikos", "Georgiou", identity.RoleAgent, "password123")
	require.NoError(t, err)
	return u
}
