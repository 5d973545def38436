package listview

import (
	"context"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/listview"
	"github.com/crm/backend/internal/domain/trading"
)

// RecordSource loads every row of a table for in-memory filtering
type RecordSource func(ctx context.Context) ([]listview.Record, error)

// Sources maps table keys to their record source
type Sources map[string]RecordSource

// NewRepositorySources builds the sources of the registry tables
func NewRepositorySources(
	entityRepo lead.EntityRepository,
	positionRepo trading.Repository,
	txRepo finance.TransactionRepository,
	userRepo identity.UserRepository,
) Sources {
	return Sources{
		TableLeads: func(ctx context.Context) ([]listview.Record, error) {
			rows, err := entityRepo.FindByStage(ctx, lead.StageLead)
			return records(rows, err)
		},
		TableClients: func(ctx context.Context) ([]listview.Record, error) {
			rows, err := entityRepo.FindByStage(ctx, lead.StageClient)
			return records(rows, err)
		},
		TableOpenPositions: func(ctx context.Context) ([]listview.Record, error) {
			rows, err := positionRepo.FindByStatus(ctx, trading.StatusOpen)
			return records(rows, err)
		},
		TableClosedPositions: func(ctx context.Context) ([]listview.Record, error) {
			rows, err := positionRepo.FindByStatus(ctx, trading.StatusClosed)
			return records(rows, err)
		},
		TableTransactions: func(ctx context.Context) ([]listview.Record, error) {
			rows, err := txRepo.FindAllRecords(ctx)
			return records(rows, err)
		},
		TableUsers: func(ctx context.Context) ([]listview.Record, error) {
			rows, err := userRepo.FindAllRecords(ctx)
			return records(rows, err)
		},
	}
}

// records converts a slice of values whose pointer implements Record
func records[T any, PT interface {
	*T
	listview.Record
}](rows []T, err error) ([]listview.Record, error) {
	if err != nil {
		return nil, err
	}
	out := make([]listview.Record, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}
