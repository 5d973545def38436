package lead

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newImportFixture() (*fixture, *ImportService) {
	f := newFixture()
	f.accountTypes.On("FindDefault", mock.Anything).Return(nil, shared.ErrNotFound)
	return f, NewImportService(f.service, zap.NewNop())
}

func TestImportService_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("label headers and defaults from options", func(t *testing.T) {
		f, svc := newImportFixture()
		f.entities.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		var saved []*lead.Entity
		f.entities.On("Save", mock.Anything, mock.AnythingOfType("*lead.Entity")).
			Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*lead.Entity)) }).
			Return(nil)

		csv := "First Name,LAST_NAME,E-mail junk,Email,Country\n" +
			"Maria,Papadopoulou,x,Maria@Example.com,gr\n" +
			"Jonas,Berg,y,jonas@example.com,se\n"
		result, err := svc.Import(ctx, strings.NewReader(csv), ImportOptions{Campaign: "spring-promo"})
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.ImportedRows)
		assert.Zero(t, result.ErrorRows)
		require.Len(t, saved, 2)
		assert.Equal(t, "maria@example.com", saved[0].Email)
		assert.Equal(t, "GR", saved[0].Country)
		assert.Equal(t, "spring-promo", saved[1].Campaign)
		assert.Equal(t, []string{lead.EventTypeEntityCreated, lead.EventTypeEntityCreated}, f.events.types())
	})

	t.Run("semicolon delimiter", func(t *testing.T) {
		f, svc := newImportFixture()
		f.entities.On("Save", mock.Anything, mock.Anything).Return(nil)

		result, err := svc.Import(ctx, strings.NewReader("first_name;phone\nMaria;+30 210 555 0100\n"), ImportOptions{Delimiter: ';'})
		require.NoError(t, err)
		assert.Equal(t, 1, result.ImportedRows)
	})

	t.Run("duplicates are reported", func(t *testing.T) {
		f, svc := newImportFixture()
		f.entities.On("ExistsByEmail", mock.Anything, "maria@example.com").Return(false, nil)
		f.entities.On("ExistsByEmail", mock.Anything, "known@example.com").Return(true, nil)
		f.entities.On("Save", mock.Anything, mock.Anything).Return(nil)

		csv := "email\nmaria@example.com\nMARIA@example.com\nknown@example.com\n"
		result, err := svc.Import(ctx, strings.NewReader(csv), ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 1, result.ImportedRows)
		assert.Equal(t, 2, result.ErrorRows)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, csvimport.ErrCodeDuplicateInFile, result.Errors[0].Code)
		assert.Equal(t, 3, result.Errors[0].Row)
		assert.Equal(t, csvimport.ErrCodeDuplicateInDB, result.Errors[1].Code)
		assert.Equal(t, 4, result.Errors[1].Row)
	})

	t.Run("duplicates are skipped", func(t *testing.T) {
		f, svc := newImportFixture()
		f.entities.On("ExistsByEmail", mock.Anything, "maria@example.com").Return(false, nil)
		f.entities.On("ExistsByEmail", mock.Anything, "known@example.com").Return(true, nil)
		f.entities.On("Save", mock.Anything, mock.Anything).Return(nil)

		csv := "email\nmaria@example.com\nmaria@example.com\nknown@example.com\n"
		result, err := svc.Import(ctx, strings.NewReader(csv), ImportOptions{SkipDuplicates: true})
		require.NoError(t, err)

		assert.Equal(t, 1, result.ImportedRows)
		assert.Equal(t, 2, result.SkippedRows)
		assert.Zero(t, result.ErrorRows)
	})

	t.Run("invalid cell names its column", func(t *testing.T) {
		f, svc := newImportFixture()
		f.entities.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.entities.On("Save", mock.Anything, mock.Anything).Return(nil)

		csv := "email,country\nmaria@example.com,Greece\njonas@example.com,SE\n"
		result, err := svc.Import(ctx, strings.NewReader(csv), ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, result.ImportedRows)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 2, result.Errors[0].Row)
		assert.Equal(t, lead.FieldCountry, result.Errors[0].Column)
		assert.Equal(t, csvimport.ErrCodeValidation, result.Errors[0].Code)
	})

	t.Run("row without contact details", func(t *testing.T) {
		f, svc := newImportFixture()
		f.entities.On("Save", mock.Anything, mock.Anything).Return(nil)

		result, err := svc.Import(ctx, strings.NewReader("first_name,phone\nMaria,\n"), ImportOptions{})
		require.NoError(t, err)
		assert.Zero(t, result.ImportedRows)
		assert.Equal(t, 1, result.ErrorRows)
		f.entities.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("owner is applied to every row", func(t *testing.T) {
		f, svc := newImportFixture()
		agent := newAgent(t)
		f.users.On("FindByID", mock.Anything, agent.ID).Return(agent, nil)
		f.entities.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.entities.On("Save", mock.Anything, mock.MatchedBy(func(e *lead.Entity) bool {
			return e.OwnerID != nil && *e.OwnerID == agent.ID
		})).Return(nil)

		result, err := svc.Import(ctx, strings.NewReader("email\na@example.com\nb@example.com\n"), ImportOptions{OwnerID: &agent.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, result.ImportedRows)
	})

	t.Run("error list is capped", func(t *testing.T) {
		_, svc := newImportFixture()
		var b strings.Builder
		b.WriteString("email\n")
		for i := 0; i < maxReportErrors+5; i++ {
			fmt.Fprintf(&b, "broken-%d\n", i)
		}

		result, err := svc.Import(ctx, strings.NewReader(b.String()), ImportOptions{})
		require.NoError(t, err)
		assert.Len(t, result.Errors, maxReportErrors)
		assert.Equal(t, maxReportErrors+5, result.TotalErrors)
		assert.True(t, result.IsTruncated)
	})
}

func TestImportService_RejectsFile(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		csv  string
	}{
		{"empty file", ""},
		{"no contact column", "first_name,last_name\nMaria,Papadopoulou\n"},
		{"header only", "email,phone\n"},
		{"invalid encoding", "email\n\xff\xfe@example.com\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, svc := newImportFixture()
			_, err := svc.Import(ctx, strings.NewReader(tt.csv), ImportOptions{})
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
			f.entities.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestImportService_Columns(t *testing.T) {
	_, svc := newImportFixture()
	for _, spec := range svc.Columns() {
		assert.NotEqual(t, lead.FieldStatus, spec.Key)
	}
}
