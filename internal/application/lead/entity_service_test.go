package lead

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEntityService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes input and uses the default account type", func(t *testing.T) {
		f := newFixture()
		standard, err := accounttype.NewAccountType("Standard", "USD", decimal.NewFromInt(250), 100)
		require.NoError(t, err)
		agent := newAgent(t)

		f.entities.On("ExistsByEmail", mock.Anything, "maria@example.com").Return(false, nil)
		f.users.On("FindByID", mock.Anything, agent.ID).Return(agent, nil)
		f.accountTypes.On("FindDefault", mock.Anything).Return(standard, nil)
		f.entities.On("Save", mock.Anything, mock.AnythingOfType("*lead.Entity")).Return(nil)

		resp, err := f.service.Create(ctx, CreateEntityInput{
			FirstName: " Maria ",
			Email:     "Maria@Example.com",
			Country:   "gr",
			OwnerID:   &agent.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, "maria@example.com", resp.Email)
		assert.Equal(t, "GR", resp.Country)
		assert.Equal(t, "lead", resp.Stage)
		assert.Equal(t, "new", resp.Status)
		assert.Equal(t, &agent.ID, resp.OwnerID)
		assert.Equal(t, &standard.ID, resp.AccountTypeID)
		assert.Equal(t, []string{lead.EventTypeEntityCreated, lead.EventTypeEntityAssigned}, f.events.types())
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture()
		f.entities.On("ExistsByEmail", mock.Anything, "maria@example.com").Return(true, nil)

		_, err := f.service.Create(ctx, CreateEntityInput{FirstName: "Maria", Email: "maria@example.com"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		f.entities.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("disabled owner", func(t *testing.T) {
		f := newFixture()
		agent := newAgent(t)
		agent.Disable()
		f.users.On("FindByID", mock.Anything, agent.ID).Return(agent, nil)

		_, err := f.service.Create(ctx, CreateEntityInput{FirstName: "Maria", Phone: "+30 210 555 0100", OwnerID: &agent.ID})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("contact details required", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.Create(ctx, CreateEntityInput{FirstName: "Maria"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("no default account type", func(t *testing.T) {
		f := newFixture()
		f.entities.On("ExistsByEmail", mock.Anything, "maria@example.com").Return(false, nil)
		f.accountTypes.On("FindDefault", mock.Anything).Return(nil, shared.ErrNotFound)
		f.entities.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.Create(ctx, CreateEntityInput{FirstName: "Maria", Email: "maria@example.com"})
		require.NoError(t, err)
		assert.Nil(t, resp.AccountTypeID)
	})
}

func TestEntityService_SetField(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes and saves with version check", func(t *testing.T) {
		f := newFixture()
		entity := newTestEntity(t)
		f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)
		f.entities.On("SaveWithLock", mock.Anything, entity).Return(nil)

		resp, err := f.service.SetField(ctx, entity.ID, lead.FieldPhone, "+30 (210) 555-0100")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Phone)
		assert.Equal(t, []string{lead.EventTypeEntityUpdated}, f.events.types())
	})

	t.Run("field that is not editable", func(t *testing.T) {
		f := newFixture()
		entity := newTestEntity(t)
		f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)

		_, err := f.service.SetField(ctx, entity.ID, lead.FieldBalance, "1000")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		f.entities.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("new email must be free", func(t *testing.T) {
		f := newFixture()
		entity := newTestEntity(t)
		f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)
		f.entities.On("ExistsByEmail", mock.Anything, "taken@example.com").Return(true, nil)

		_, err := f.service.SetField(ctx, entity.ID, lead.FieldEmail, "Taken@Example.com")
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("optimistic lock conflict is returned", func(t *testing.T) {
		f := newFixture()
		entity := newTestEntity(t)
		f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)
		f.entities.On("SaveWithLock", mock.Anything, entity).Return(shared.ErrConcurrencyConflict)

		_, err := f.service.SetField(ctx, entity.ID, lead.FieldNotes, "call after 5pm")
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Empty(t, f.events.types())
	})
}

func TestEntityService_Update_AllOrNothing(t *testing.T) {
	f := newFixture()
	entity := newTestEntity(t)
	f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)

	_, err := f.service.Update(context.Background(), entity.ID, map[string]string{
		lead.FieldFirstName: "Marianna",
		lead.FieldEmail:     "not-an-email",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	f.entities.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestEntityService_AssignAndUnassign(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	entity := newTestEntity(t)
	agent := newAgent(t)
	f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)
	f.entities.On("SaveWithLock", mock.Anything, entity).Return(nil)
	f.users.On("FindByID", mock.Anything, agent.ID).Return(agent, nil)

	resp, err := f.service.Assign(ctx, entity.ID, &agent.ID)
	require.NoError(t, err)
	assert.Equal(t, &agent.ID, resp.OwnerID)

	resp, err = f.service.Assign(ctx, entity.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, resp.OwnerID)

	missing := uuid.New()
	f.users.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	_, err = f.service.Assign(ctx, entity.ID, &missing)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestEntityService_StatusAndConvert(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	entity := newTestEntity(t)
	f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)
	f.entities.On("SaveWithLock", mock.Anything, entity).Return(nil)

	resp, err := f.service.ChangeStatus(ctx, entity.ID, "interested")
	require.NoError(t, err)
	assert.Equal(t, "interested", resp.Status)

	_, err = f.service.ChangeStatus(ctx, entity.ID, "hot")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	resp, err = f.service.Convert(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, "client", resp.Stage)
	assert.NotNil(t, resp.ConvertedAt)
	assert.Contains(t, f.events.types(), lead.EventTypeEntityConverted)

	_, err = f.service.Convert(ctx, entity.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestEntityService_RecordContact(t *testing.T) {
	f := newFixture()
	entity := newTestEntity(t)
	f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)
	f.entities.On("SaveWithLock", mock.Anything, entity).Return(nil)

	resp, err := f.service.RecordContact(context.Background(), entity.ID, "no_answer")
	require.NoError(t, err)
	assert.Equal(t, "no_answer", resp.Status)
	assert.NotNil(t, resp.LastContactAt)
}

func TestEntityService_SetAccountType(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	entity := newTestEntity(t)
	vip, err := accounttype.NewAccountType("VIP", "USD", decimal.NewFromInt(10000), 200)
	require.NoError(t, err)
	f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)
	f.entities.On("SaveWithLock", mock.Anything, entity).Return(nil)
	f.accountTypes.On("FindByID", mock.Anything, vip.ID).Return(vip, nil)

	resp, err := f.service.SetAccountType(ctx, entity.ID, vip.ID)
	require.NoError(t, err)
	assert.Equal(t, &vip.ID, resp.AccountTypeID)

	require.NoError(t, vip.Disable())
	_, err = f.service.SetAccountType(ctx, entity.ID, vip.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestEntityService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("funded client is kept", func(t *testing.T) {
		f := newFixture()
		entity := newTestEntity(t)
		_, err := entity.Deposit(decimal.NewFromInt(500), entity.CreatedAt)
		require.NoError(t, err)
		f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)

		err = f.service.Delete(ctx, entity.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("lead is deleted", func(t *testing.T) {
		f := newFixture()
		entity := newTestEntity(t)
		f.entities.On("FindByID", mock.Anything, entity.ID).Return(entity, nil)
		f.entities.On("Delete", mock.Anything, entity.ID).Return(nil)

		require.NoError(t, f.service.Delete(ctx, entity.ID))
		assert.Equal(t, []string{lead.EventTypeEntityDeleted}, f.events.types())
	})
}

func TestEntityService_List(t *testing.T) {
	f := newFixture()
	entity := newTestEntity(t)
	owner := uuid.New()
	matchFilter := mock.MatchedBy(func(fl shared.Filter) bool {
		return fl.Filters["stage"] == "lead" && fl.Filters["owner_id"] == owner && fl.PageSize == 20
	})
	f.entities.On("FindAll", mock.Anything, matchFilter).Return([]lead.Entity{*entity}, nil)
	f.entities.On("Count", mock.Anything, matchFilter).Return(int64(1), nil)

	items, total, err := f.service.List(context.Background(), EntityListFilter{Stage: "lead", OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Maria Papadopoulou", items[0].FullName)
}

func TestEntityService_Fields(t *testing.T) {
	f := newFixture()
	keys := make([]string, 0)
	for _, spec := range f.service.Fields() {
		keys = append(keys, spec.Key)
	}
	assert.Contains(t, keys, lead.FieldEmail)
	assert.Contains(t, keys, lead.FieldStatus)
	assert.NotContains(t, keys, lead.FieldBalance)
}

var _ identity.UserRepository = (*MockUserRepository)(nil)
