//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/listview"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/trading"
	"github.com/crm/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// setupPostgresDB starts a disposable Postgres, applies the SQL migrations
// and returns a GORM handle on the migrated schema
func setupPostgresDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("crm_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	runMigrationsUp(t, dsn)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, dsn
}

func runMigrationsUp(t *testing.T, dsn string) {
	t.Helper()
	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(conn, migrationsDir(t), zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	require.NoError(t, m.Up())
}

func TestPostgres_MigrationsRoundTrip(t *testing.T) {
	_, dsn := setupPostgresDB(t)

	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(conn, migrationsDir(t), zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.NotZero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Down(0))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	require.NoError(t, m.Up())
}

func TestPostgres_DepositApproval(t *testing.T) {
	db, _ := setupPostgresDB(t)
	ctx := context.Background()
	txm := NewTxManager(db)
	entities := NewGormEntityRepository(db)
	gateways := NewGormGatewayRepository(db)
	transactions := NewGormTransactionRepository(db)
	users := NewGormUserRepository(db)

	manager := newTestUser(t, "manager@crm.local", identity.RoleManager)
	require.NoError(t, users.Save(ctx, manager))

	g := newTestGateway(t, "Card")
	require.NoError(t, gateways.Save(ctx, g))

	e := newTestEntity(t, "Nora", "Nora@Example.com")
	require.NoError(t, entities.Save(ctx, e))
	deposit, err := finance.NewTransaction(finance.NewTransactionInput{
		EntityID: e.ID, Type: finance.TypeDeposit, Amount: decimal.RequireFromString("250.50"), Currency: "USD",
	}, e, g)
	require.NoError(t, err)
	require.NoError(t, transactions.Save(ctx, deposit))

	require.NoError(t, txm.RunInTx(ctx, func(ctx context.Context) error {
		client, err := entities.FindByID(ctx, e.ID)
		if err != nil {
			return err
		}
		tx, err := transactions.FindByID(ctx, deposit.ID)
		if err != nil {
			return err
		}
		if err := tx.Approve(client, manager.ID, time.Now()); err != nil {
			return err
		}
		if err := transactions.Save(ctx, tx); err != nil {
			return err
		}
		return entities.Save(ctx, client)
	}))

	client, err := entities.FindByEmail(ctx, "nora@example.com")
	require.NoError(t, err)
	assert.True(t, client.Balance.Equal(decimal.RequireFromString("250.50")))
	assert.True(t, client.FTDAmount.Equal(decimal.RequireFromString("250.50")))

	approved, err := transactions.FindByID(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.StatusApproved, approved.Status)
	assert.True(t, approved.IsFTD)

	inUse, err := gateways.IsInUse(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestPostgres_TxRollback(t *testing.T) {
	db, _ := setupPostgresDB(t)
	ctx := context.Background()
	entities := NewGormEntityRepository(db)

	e := newTestEntity(t, "Rolf", "rolf@example.com")
	err := NewTxManager(db).RunInTx(ctx, func(ctx context.Context) error {
		if err := entities.Save(ctx, e); err != nil {
			return err
		}
		return shared.NewDomainError("INVALID_STATE", "abort")
	})
	require.Error(t, err)

	_, err = entities.FindByID(ctx, e.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPostgres_AccountTypesPositionsAndViews(t *testing.T) {
	db, _ := setupPostgresDB(t)
	ctx := context.Background()

	accountTypes := NewGormAccountTypeRepository(db)
	gold := newTestAccountType(t, "Gold")
	_, err := gold.UpsertRule(accounttype.AssetRuleInput{
		AssetClass: accounttype.AssetForex, Leverage: 200, MaxVolume: decimal.NewFromInt(50), Enabled: true,
	})
	require.NoError(t, err)
	require.NoError(t, accountTypes.Save(ctx, gold))
	loaded, err := accountTypes.FindByID(ctx, gold.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Rules, 1)
	assert.Equal(t, 200, loaded.Rules[0].Leverage)

	client := newTestEntity(t, "Petra", "petra@example.com")
	require.NoError(t, NewGormEntityRepository(db).Save(ctx, client))
	positions := NewGormPositionRepository(db)
	eur := openTestPosition(t, client.ID, "eurusd", "1.0850")
	require.NoError(t, positions.Save(ctx, eur))
	open, err := positions.FindOpenBySymbol(ctx, "EURUSD")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, trading.SideBuy, open[0].Side)

	users := NewGormUserRepository(db)
	owner := newTestUser(t, "owner@crm.local", identity.RoleAgent)
	other := newTestUser(t, "other@crm.local", identity.RoleAgent)
	require.NoError(t, users.Save(ctx, owner))
	require.NoError(t, users.Save(ctx, other))

	views := NewGormViewRepository(db)
	require.NoError(t, views.Save(ctx, newTestView(t, owner.ID, "Cyprus", true)))
	visible, err := views.FindVisible(ctx, other.ID, testLeadsTable.Key)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Len(t, visible[0].Conditions, 1)
	assert.Equal(t, listview.OpEq, visible[0].Conditions[0].Operator)

	prefs := NewGormColumnPreferenceRepository(db)
	state := listview.ColumnState{Order: []string{"balance", "email"}, Hidden: []string{"email"}}
	require.NoError(t, prefs.Save(ctx, owner.ID, "leads", state))
	require.NoError(t, prefs.Save(ctx, owner.ID, "leads", state))
	got, found, err := prefs.Find(ctx, owner.ID, "leads")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, state, got)
}
