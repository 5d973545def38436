package accounttype

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAccountTypeRepository is a mock implementation of accounttype.Repository
type MockAccountTypeRepository struct {
	mock.Mock
	txCalls int
}

func (m *MockAccountTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounttype.AccountType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounttype.AccountType), args.Error(1)
}

func (m *MockAccountTypeRepository) FindByName(ctx context.Context, name string) (*accounttype.AccountType, error) {
	args := m.Called(ctx, name)
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

func (m *MockAccountTypeRepository) FindAll(ctx context.Context) ([]accounttype.AccountType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]accounttype.AccountType), args.Error(1)
}

func (m *MockAccountTypeRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountTypeRepository) Save(ctx context.Context, accountType *accounttype.AccountType) error {
	args := m.Called(ctx, accountType)
	return args.Error(0)
}

func (m *MockAccountTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountTypeRepository) ClearDefault(ctx context.Context, keepID uuid.UUID) error {
	args := m.Called(ctx, keepID)
	return args.Error(0)
}

func (m *MockAccountTypeRepository) WithTx(_ context.Context, fn func(repo accounttype.Repository) error) error {
	m.txCalls++
	return fn(m)
}

// MockEntityRepository only counts contacts per account type
type MockEntityRepository struct {
	mock.Mock
	lead.EntityRepository
}

func (m *MockEntityRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func newService() (*AccountTypeService, *MockAccountTypeRepository, *MockEntityRepository) {
	repo := new(MockAccountTypeRepository)
	entities := new(MockEntityRepository)
	return NewAccountTypeService(repo, entities, zap.NewNop()), repo, entities
}

func standardRequest() AccountTypeRequest {
	return AccountTypeRequest{
		Name:            "Standard",
		Description:     "Retail accounts",
		Currency:        "usd",
		MinDeposit:      decimal.NewFromInt(250),
		DefaultLeverage: 100,
	}
}

func newType(t *testing.T, name string) *accounttype.AccountType {
	t.Helper()
	at, err := accounttype.NewAccountType(name, "USD", decimal.NewFromInt(100), 50)
	require.NoError(t, err)
	return at
}

func TestAccountTypeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("first type becomes the default", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("ExistsByName", mock.Anything, "Standard", (*uuid.UUID)(nil)).Return(false, nil)
		repo.On("FindDefault", mock.Anything).Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, standardRequest())
		require.NoError(t, err)
		assert.True(t, resp.IsDefault)
		assert.Equal(t, "USD", resp.Currency)
		assert.Equal(t, "Retail accounts", resp.Description)
		assert.Empty(t, resp.Rules)
		assert.Equal(t, 1, repo.txCalls)
	})

	t.Run("later types are not default", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("ExistsByName", mock.Anything, "Standard", (*uuid.UUID)(nil)).Return(false, nil)
		repo.On("FindDefault", mock.Anything).Return(newType(t, "VIP"), nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, standardRequest())
		require.NoError(t, err)
		assert.False(t, resp.IsDefault)
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("ExistsByName", mock.Anything, "Standard", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := svc.Create(ctx, standardRequest())
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invalid leverage", func(t *testing.T) {
		svc, _, _ := newService()
		req := standardRequest()
		req.DefaultLeverage = 0
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestAccountTypeService_SetDefault(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the previous default", func(t *testing.T) {
		svc, repo, _ := newService()
		vip := newType(t, "VIP")
		repo.On("FindByID", mock.Anything, vip.ID).Return(vip, nil)
		repo.On("ClearDefault", mock.Anything, vip.ID).Return(nil)
		repo.On("Save", mock.Anything, vip).Return(nil)

		resp, err := svc.SetDefault(ctx, vip.ID)
		require.NoError(t, err)
		assert.True(t, resp.IsDefault)
		repo.AssertExpectations(t)
	})

	t.Run("disabled type", func(t *testing.T) {
		svc, repo, _ := newService()
		vip := newType(t, "VIP")
		require.NoError(t, vip.Disable())
		repo.On("FindByID", mock.Anything, vip.ID).Return(vip, nil)

		_, err := svc.SetDefault(ctx, vip.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		repo.AssertNotCalled(t, "ClearDefault", mock.Anything, mock.Anything)
	})
}

func TestAccountTypeService_Disable(t *testing.T) {
	svc, repo, _ := newService()
	standard := newType(t, "Standard")
	require.NoError(t, standard.MarkDefault())
	repo.On("FindByID", mock.Anything, standard.ID).Return(standard, nil)

	_, err := svc.Disable(context.Background(), standard.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	standard.UnmarkDefault()
	repo.On("Save", mock.Anything, standard).Return(nil)
	resp, err := svc.Disable(context.Background(), standard.ID)
	require.NoError(t, err)
	assert.False(t, resp.Enabled)

	resp, err = svc.Enable(context.Background(), standard.ID)
	require.NoError(t, err)
	assert.True(t, resp.Enabled)
}

func TestAccountTypeService_Rules(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService()
	standard := newType(t, "Standard")
	repo.On("FindByID", mock.Anything, standard.ID).Return(standard, nil)
	repo.On("Save", mock.Anything, standard).Return(nil)

	resp, err := svc.UpsertRule(ctx, standard.ID, "forex", AssetRuleRequest{
		Leverage:         30,
		CommissionPerLot: decimal.NewFromInt(7),
		MaxVolume:        decimal.NewFromInt(20),
		Enabled:          true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Rules, 1)
	assert.Equal(t, 30, resp.Rules[0].Leverage)

	resp, err = svc.UpsertRule(ctx, standard.ID, "forex", AssetRuleRequest{Leverage: 50, Enabled: true})
	require.NoError(t, err)
	require.Len(t, resp.Rules, 1)
	assert.Equal(t, 50, resp.Rules[0].Leverage)

	_, err = svc.UpsertRule(ctx, standard.ID, "bonds", AssetRuleRequest{Leverage: 5})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.UpsertRule(ctx, standard.ID, "crypto", AssetRuleRequest{Leverage: 2, SpreadMarkup: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	resp, err = svc.RemoveRule(ctx, standard.ID, "forex")
	require.NoError(t, err)
	assert.Empty(t, resp.Rules)

	_, err = svc.RemoveRule(ctx, standard.ID, "forex")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAccountTypeService_Update(t *testing.T) {
	svc, repo, _ := newService()
	standard := newType(t, "Standard")
	repo.On("FindByID", mock.Anything, standard.ID).Return(standard, nil)
	repo.On("ExistsByName", mock.Anything, "Premium", &standard.ID).Return(true, nil)

	req := standardRequest()
	req.Name = "Premium"
	_, err := svc.Update(context.Background(), standard.ID, req)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestAccountTypeService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("default is kept", func(t *testing.T) {
		svc, repo, _ := newService()
		standard := newType(t, "Standard")
		require.NoError(t, standard.MarkDefault())
		repo.On("FindByID", mock.Anything, standard.ID).Return(standard, nil)

		assert.ErrorIs(t, svc.Delete(ctx, standard.ID), shared.ErrInvalidState)
	})

	t.Run("assigned type is kept", func(t *testing.T) {
		svc, repo, entities := newService()
		vip := newType(t, "VIP")
		repo.On("FindByID", mock.Anything, vip.ID).Return(vip, nil)
		entities.On("Count", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Filters["account_type_id"] == vip.ID
		})).Return(int64(3), nil)

		assert.ErrorIs(t, svc.Delete(ctx, vip.ID), shared.ErrInvalidState)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unused type is deleted", func(t *testing.T) {
		svc, repo, entities := newService()
		vip := newType(t, "VIP")
		repo.On("FindByID", mock.Anything, vip.ID).Return(vip, nil)
		entities.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)
		repo.On("Delete", mock.Anything, vip.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, vip.ID))
	})
}
