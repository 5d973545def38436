package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, name string) *finance.Gateway {
	t.Helper()
	g, err := finance.NewGateway(finance.GatewayInput{
		Name:               name,
		Provider:           "stripe",
		Currencies:         []string{"USD", "EUR"},
		SupportsDeposit:    true,
		SupportsWithdrawal: true,
		MinAmount:          decimal.NewFromInt(10),
		Enabled:            true,
	})
	require.NoError(t, err)
	return g
}

func TestGormGatewayRepository(t *testing.T) {
	ctx := context.Background()
	db := setupSQLiteDB(t)
	gateways := NewGormGatewayRepository(db)
	transactions := NewGormTransactionRepository(db)
	entities := NewGormEntityRepository(db)

	g := newTestGateway(t, "Card")
	require.NoError(t, gateways.Save(ctx, g))

	loaded, err := gateways.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"USD", "EUR"}, loaded.Currencies)
	assert.True(t, loaded.MinAmount.Equal(decimal.NewFromInt(10)))

	exists, err := gateways.ExistsByName(ctx, "CARD", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	inUse, err := gateways.IsInUse(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, inUse)

	e := newTestEntity(t, "Hugo", "hugo@example.com")
	require.NoError(t, entities.Save(ctx, e))
	tx, err := finance.NewTransaction(finance.NewTransactionInput{
		EntityID: e.ID, Type: finance.TypeDeposit, Amount: decimal.NewFromInt(100), Currency: "usd",
	}, e, g)
	require.NoError(t, err)
	require.NoError(t, transactions.Save(ctx, tx))

	inUse, err = gateways.IsInUse(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, inUse)

	loaded.Enabled = false
	require.NoError(t, gateways.Save(ctx, loaded))
	enabled, err := gateways.FindAll(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, enabled)
	all, err := gateways.FindAll(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, gateways.Delete(ctx, g.ID))
	assert.ErrorIs(t, gateways.Delete(ctx, g.ID), shared.ErrNotFound)
}

func TestGormTransactionRepository_SaveAndFilter(t *testing.T) {
	ctx := context.Background()
	db := setupSQLiteDB(t)
	transactions := NewGormTransactionRepository(db)
	entities := NewGormEntityRepository(db)

	e := newTestEntity(t, "Ines", "ines@example.com")
	require.NoError(t, entities.Save(ctx, e))

	deposit, err := finance.NewTransaction(finance.NewTransactionInput{
		EntityID: e.ID, Type: finance.TypeDeposit, Amount: decimal.NewFromInt(500), Currency: "EUR", Reference: "WIRE-778",
	}, e, nil)
	require.NoError(t, err)
	require.NoError(t, transactions.Save(ctx, deposit))

	credit, err := finance.NewTransaction(finance.NewTransactionInput{
		EntityID: e.ID, Type: finance.TypeCreditIn, Amount: decimal.NewFromInt(50), Currency: "EUR",
	}, e, nil)
	require.NoError(t, err)
	require.NoError(t, transactions.Save(ctx, credit))

	stale, err := transactions.FindByID(ctx, deposit.ID)
	require.NoError(t, err)

	require.NoError(t, deposit.Approve(e, uuid.New(), time.Now()))
	require.NoError(t, transactions.Save(ctx, deposit))
	assert.Equal(t, 2, deposit.Version)

	require.NoError(t, stale.Reject(uuid.New(), "duplicate", time.Now()))
	assert.ErrorIs(t, transactions.Save(ctx, stale), ErrOptimisticLock)

	loaded, err := transactions.FindByID(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.StatusApproved, loaded.Status)
	assert.True(t, loaded.IsFTD)
	assert.NotNil(t, loaded.ProcessedAt)

	filter := shared.DefaultFilter()
	filter.Filters["entity_id"] = e.ID
	filter.Filters["status"] = finance.StatusPending
	pending, err := transactions.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, credit.ID, pending[0].ID)

	search := shared.DefaultFilter()
	search.Search = "wire"
	count, err := transactions.Count(ctx, search)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	all, err := transactions.FindAllRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTxManager_RunInTx(t *testing.T) {
	ctx := context.Background()
	db := setupSQLiteDB(t)
	txm := NewTxManager(db)
	transactions := NewGormTransactionRepository(db)
	entities := NewGormEntityRepository(db)

	e := newTestEntity(t, "Jonas", "jonas@example.com")
	require.NoError(t, entities.Save(ctx, e))
	deposit, err := finance.NewTransaction(finance.NewTransactionInput{
		EntityID: e.ID, Type: finance.TypeDeposit, Amount: decimal.NewFromInt(75), Currency: "USD",
	}, e, nil)
	require.NoError(t, err)
	require.NoError(t, transactions.Save(ctx, deposit))

	t.Run("rolls back every write on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := txm.RunInTx(ctx, func(ctx context.Context) error {
			entity, err := entities.FindByID(ctx, e.ID)
			require.NoError(t, err)
			tx, err := transactions.FindByID(ctx, deposit.ID)
			require.NoError(t, err)
			require.NoError(t, tx.Approve(entity, uuid.New(), time.Now()))
			require.NoError(t, entities.SaveWithLock(ctx, entity))
			require.NoError(t, transactions.Save(ctx, tx))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		entity, err := entities.FindByID(ctx, e.ID)
		require.NoError(t, err)
		assert.True(t, entity.Balance.IsZero())
		tx, err := transactions.FindByID(ctx, deposit.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.StatusPending, tx.Status)
	})

	t.Run("commits nested units once", func(t *testing.T) {
		err := txm.RunInTx(ctx, func(ctx context.Context) error {
			return txm.RunInTx(ctx, func(ctx context.Context) error {
				entity, err := entities.FindByID(ctx, e.ID)
				if err != nil {
					return err
				}
				tx, err := transactions.FindByID(ctx, deposit.ID)
				if err != nil {
					return err
				}
				if err := tx.Approve(entity, uuid.New(), time.Now()); err != nil {
					return err
				}
				if err := entities.SaveWithLock(ctx, entity); err != nil {
					return err
				}
				return transactions.Save(ctx, tx)
			})
		})
		require.NoError(t, err)

		entity, err := entities.FindByID(ctx, e.ID)
		require.NoError(t, err)
		assert.True(t, entity.Balance.Equal(decimal.NewFromInt(75)))
		assert.Equal(t, 2, entity.Version)
	})
}
