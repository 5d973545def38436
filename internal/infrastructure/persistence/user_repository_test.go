package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/settings"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUser(t *testing.T, email string, role identity.Role) *identity.User {
	t.Helper()
	identity.BcryptCost = bcrypt.MinCost
	u, err := identity.NewUser(email, "Test", "User", role, "s3cretpass")
	require.NoError(t, err)
	return u
}

func TestGormUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupSQLiteDB(t))

	admin := newTestUser(t, "admin@crm.local", identity.RoleAdmin)
	agent := newTestUser(t, "agent@crm.local", identity.RoleAgent)
	require.NoError(t, repo.Save(ctx, admin))
	require.NoError(t, repo.Save(ctx, agent))

	found, err := repo.FindByEmail(ctx, " Agent@CRM.local ")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, found.ID)
	assert.True(t, found.VerifyPassword("s3cretpass"))

	found.RecordLoginFailure(time.Now())
	require.NoError(t, repo.Save(ctx, found))
	reloaded, err := repo.FindByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.FailedAttempts)

	exists, err := repo.ExistsByEmail(ctx, "admin@crm.local", &agent.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByEmail(ctx, "admin@crm.local", &admin.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	admins, err := repo.CountByRole(ctx, identity.RoleAdmin, identity.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	filter := shared.DefaultFilter()
	filter.Filters["role"] = identity.RoleAgent
	agents, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, agents, 1)

	byIDs, err := repo.FindByIDs(ctx, []uuid.UUID{admin.ID, agent.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	require.NoError(t, repo.Delete(ctx, agent.ID))
	assert.ErrorIs(t, repo.Delete(ctx, agent.ID), shared.ErrNotFound)
}

func TestGormEmailTemplateRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormEmailTemplateRepository(setupSQLiteDB(t))

	welcome, err := settings.NewEmailTemplate(settings.TemplateInput{
		Name: "Welcome", Category: settings.CategoryOnboarding,
		Subject: "Welcome {{first_name}}", Body: "Hello {{ first_name }}", Enabled: true,
	})
	require.NoError(t, err)
	receipt, err := settings.NewEmailTemplate(settings.TemplateInput{
		Name: "Deposit receipt", Category: settings.CategoryDeposit,
		Subject: "Deposit received", Body: "We received {{amount}}", Enabled: true,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, welcome))
	require.NoError(t, repo.Save(ctx, receipt))

	all, err := repo.FindAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Deposit receipt", all[0].Name)

	onboarding, err := repo.FindAll(ctx, settings.CategoryOnboarding)
	require.NoError(t, err)
	require.Len(t, onboarding, 1)
	assert.Equal(t, "Hello {{ first_name }}", onboarding[0].Body)

	exists, err := repo.ExistsByName(ctx, "WELCOME", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, welcome.ID))
	_, err = repo.FindByID(ctx, welcome.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
