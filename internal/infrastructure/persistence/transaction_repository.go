package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements finance.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	var model models.TransactionModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds transactions matching the filter
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Transaction, error) {
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&models.TransactionModel{}), filter)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, TransactionSortFields, "created_at"))

	var rows []models.TransactionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(rows), nil
}

// Count counts transactions matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&models.TransactionModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAllRecords loads every transaction, newest first
func (r *GormTransactionRepository) FindAllRecords(ctx context.Context) ([]finance.Transaction, error) {
	var rows []models.TransactionModel
	if err := conn(ctx, r.db).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(rows), nil
}

// Save creates a transaction or updates it under a version check
func (r *GormTransactionRepository) Save(ctx context.Context, transaction *finance.Transaction) error {
	model := models.TransactionModelFromDomain(transaction)
	db := conn(ctx, r.db)

	var exists int64
	if err := db.Model(&models.TransactionModel{}).Where("id = ?", transaction.ID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return db.Create(model).Error
	}

	model.Version = transaction.Version + 1
	result := db.Model(model).
		Where("version = ?", transaction.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	transaction.Version = model.Version
	return nil
}

func (r *GormTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(reference) LIKE ? OR LOWER(comment) LIKE ?", p, p)
	}
	for key, value := range filter.Filters {
		switch key {
		case "entity_id":
			query = query.Where("entity_id = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "gateway_id":
			query = query.Where("gateway_id = ?", value)
		}
	}
	return query
}

func transactionsToDomain(rows []models.TransactionModel) []finance.Transaction {
	out := make([]finance.Transaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ finance.TransactionRepository = (*GormTransactionRepository)(nil)
