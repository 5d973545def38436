package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestEntity(t *testing.T, first, email string) *lead.Entity {
	t.Helper()
	e, err := lead.NewEntity(lead.NewEntityInput{
		FirstName: first,
		LastName:  "Tester",
		Email:     email,
		Country:   "cy",
		Source:    "web",
	})
	require.NoError(t, err)
	return e
}

func TestGormEntityRepository_FindByID_NotFound(t *testing.T) {
	gormDB, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormEntityRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "entities" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(id, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	e, err := repo.FindByID(context.Background(), id)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormEntityRepository_FindByID(t *testing.T) {
	gormDB, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormEntityRepository(gormDB)

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "version", "first_name", "email", "stage", "status", "balance", "credit", "ftd_amount"}).
		AddRow(id.String(), 3, "Maria", "maria@example.com", "client", "converted", "150.25", "0", "100")
	mock.ExpectQuery(`SELECT \* FROM "entities" WHERE id = \$1`).
		WithArgs(id, 1).
		WillReturnRows(rows)

	e, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, 3, e.Version)
	assert.Equal(t, lead.StageClient, e.Stage)
	assert.True(t, e.Balance.Equal(decimal.RequireFromString("150.25")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormEntityRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewGormEntityRepository(setupSQLiteDB(t))

	e := newTestEntity(t, "Anna", "Anna@Example.com")
	require.NoError(t, repo.Save(ctx, e))

	found, err := repo.FindByEmail(ctx, "anna@example.COM")
	require.NoError(t, err)
	assert.Equal(t, e.ID, found.ID)
	assert.Equal(t, "Anna", found.FirstName)
	assert.Equal(t, lead.StageLead, found.Stage)
	assert.Equal(t, lead.StatusNew, found.Status)

	exists, err := repo.ExistsByEmail(ctx, "ANNA@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormEntityRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormEntityRepository(setupSQLiteDB(t))

	e := newTestEntity(t, "Ben", "ben@example.com")
	require.NoError(t, repo.Save(ctx, e))

	first, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)

	_, err = first.Deposit(decimal.NewFromInt(250), first.CreatedAt)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, first))
	assert.Equal(t, 2, first.Version)

	require.NoError(t, stale.SetField(lead.FieldCountry, "mt"))
	err = repo.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, ErrOptimisticLock)

	reloaded, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Version)
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(250)))
	assert.True(t, reloaded.FTD)
	assert.Equal(t, lead.StageClient, reloaded.Stage)
	assert.Equal(t, "CY", reloaded.Country)
}

func TestGormEntityRepository_FindAllAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewGormEntityRepository(setupSQLiteDB(t))
	owner := uuid.New()

	for i, name := range []string{"Carla", "Dmitri", "Elena", "Farid"} {
		e := newTestEntity(t, name, name+"@example.com")
		if i%2 == 0 {
			require.NoError(t, e.AssignOwner(owner))
		}
		require.NoError(t, repo.Save(ctx, e))
	}

	filter := shared.DefaultFilter()
	filter.Filters["owner_id"] = owner
	filter.OrderBy = "first_name"
	filter.OrderDir = "asc"
	got, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Carla", got[0].FirstName)
	assert.Equal(t, "Elena", got[1].FirstName)

	search := shared.DefaultFilter()
	search.Search = "DMI"
	count, err := repo.Count(ctx, search)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	unassigned := shared.DefaultFilter()
	unassigned.Filters["unassigned"] = true
	count, err = repo.Count(ctx, unassigned)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	paged := shared.DefaultFilter()
	paged.PageSize = 3
	paged.Page = 2
	got, err = repo.FindAll(ctx, paged)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	leads, err := repo.FindByStage(ctx, lead.StageLead)
	require.NoError(t, err)
	assert.Len(t, leads, 4)
}

func TestGormEntityRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewGormEntityRepository(setupSQLiteDB(t))

	e := newTestEntity(t, "Gia", "gia@example.com")
	require.NoError(t, repo.Save(ctx, e))
	require.NoError(t, repo.Delete(ctx, e.ID))
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), shared.ErrNotFound)
}
