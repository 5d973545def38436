package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	leadapp "github.com/crm/backend/internal/application/lead"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/event"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{Database: config.DatabaseConfig{
		Driver:       "sqlite",
		SQLitePath:   filepath.Join(t.TempDir(), "crm.db"),
		MaxOpenConns: 1,
	}}
}

func TestFakeLead(t *testing.T) {
	a := fakeLead(gofakeit.New(42), "spring")
	b := fakeLead(gofakeit.New(42), "spring")

	assert.Equal(t, a, b, "same seed gives the same lead")
	assert.Equal(t, "spring", a.Campaign)
	assert.NotEmpty(t, a.Email)
	assert.Contains(t, leadSources, a.Source)
	assert.Contains(t, leadLanguages, a.Language)
	assert.Len(t, a.Country, 2)
}

func TestSeedLeads(t *testing.T) {
	db, err := openDatabase(sqliteConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	entityRepo := persistence.NewGormEntityRepository(db.DB)
	entities := leadapp.NewEntityService(
		entityRepo,
		persistence.NewGormUserRepository(db.DB),
		persistence.NewGormAccountTypeRepository(db.DB),
		event.NewInMemoryEventBus(zap.NewNop()),
		zap.NewNop(),
	)
	ctx := context.Background()

	created, skipped, err := seedLeads(ctx, entities, gofakeit.New(7), 5, "seed", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, created)
	assert.Zero(t, skipped)

	// replaying the seed collides on every email
	created, skipped, err = seedLeads(ctx, entities, gofakeit.New(7), 5, "seed", nil)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 5, skipped)

	total, err := entityRepo.Count(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
}

func TestCreateAdmin(t *testing.T) {
	db, err := openDatabase(sqliteConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := persistence.NewGormUserRepository(db.DB)
	ctx := context.Background()

	user, err := createAdmin(ctx, users, " Root@Example.com ", "Root", "", "Sup3r-secret")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, user.Role)
	assert.Equal(t, "root@example.com", user.Email)
	assert.True(t, user.VerifyPassword("Sup3r-secret"))

	_, err = createAdmin(ctx, users, "root@example.com", "Root", "", "Sup3r-secret")
	assert.ErrorContains(t, err, "already exists")

	_, err = createAdmin(ctx, users, "other@example.com", "Other", "", "")
	assert.ErrorContains(t, err, "password is required")
}

func TestResolveMigrationsPath(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		migrationsPath = ""
		state = app{}
	})

	state = app{cfg: &config.Config{Database: config.DatabaseConfig{MigrationsPath: dir}}}
	assert.Equal(t, dir, resolveMigrationsPath())

	flagDir := filepath.Join(dir, "flag")
	require.NoError(t, os.Mkdir(flagDir, 0o755))
	migrationsPath = flagDir
	assert.Equal(t, flagDir, resolveMigrationsPath())
}

func TestMigrateCreateAndList(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CRM_DATABASE_DRIVER", "sqlite")
	t.Cleanup(func() {
		migrationsPath = ""
		state = app{}
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"--log-level", "error", "migrate", "create", "add lead tags", "tags on leads", "--path", dir})
	require.NoError(t, rootCmd.Execute())

	ups, err := filepath.Glob(filepath.Join(dir, "*_add_lead_tags.up.sql"))
	require.NoError(t, err)
	require.Len(t, ups, 1)
	body, err := os.ReadFile(ups[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "tags on leads")

	rootCmd.SetArgs([]string{"--log-level", "error", "migrate", "up", "--path", dir})
	assert.ErrorContains(t, rootCmd.Execute(), "postgres driver")
}
