package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/trading"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPositionRepository implements trading.Repository using GORM
type GormPositionRepository struct {
	db *gorm.DB
}

// NewGormPositionRepository creates a new GormPositionRepository
func NewGormPositionRepository(db *gorm.DB) *GormPositionRepository {
	return &GormPositionRepository{db: db}
}

// FindByID finds a position by its ID
func (r *GormPositionRepository) FindByID(ctx context.Context, id uuid.UUID) (*trading.Position, error) {
	var model models.PositionModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByStatus loads every position in a state
func (r *GormPositionRepository) FindByStatus(ctx context.Context, status trading.Status) ([]trading.Position, error) {
	order := "opened_at DESC"
	if status == trading.StatusClosed {
		order = "closed_at DESC"
	}
	var rows []models.PositionModel
	if err := conn(ctx, r.db).Where("status = ?", status).Order(order).Find(&rows).Error; err != nil {
		return nil, err
	}
	return positionsToDomain(rows), nil
}

// FindByEntity finds the positions of one contact
func (r *GormPositionRepository) FindByEntity(ctx context.Context, entityID uuid.UUID, filter shared.Filter) ([]trading.Position, error) {
	var rows []models.PositionModel
	query := r.scoped(conn(ctx, r.db).Model(&models.PositionModel{}), entityID, filter)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, PositionSortFields, "opened_at"))
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return positionsToDomain(rows), nil
}

// CountByEntity counts the positions of one contact
func (r *GormPositionRepository) CountByEntity(ctx context.Context, entityID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.scoped(conn(ctx, r.db).Model(&models.PositionModel{}), entityID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindOpenBySymbol finds open positions on a symbol, for price fan-out
func (r *GormPositionRepository) FindOpenBySymbol(ctx context.Context, symbol string) ([]trading.Position, error) {
	var rows []models.PositionModel
	if err := conn(ctx, r.db).
		Where("status = ? AND symbol = ?", trading.StatusOpen, strings.ToUpper(symbol)).
		Order("opened_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return positionsToDomain(rows), nil
}

// Save creates or updates a position. Existing rows are version-checked.
func (r *GormPositionRepository) Save(ctx context.Context, position *trading.Position) error {
	model := models.PositionModelFromDomain(position)
	db := conn(ctx, r.db)

	var exists int64
	if err := db.Model(&models.PositionModel{}).Where("id = ?", position.ID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return db.Create(model).Error
	}

	model.Version = position.Version + 1
	result := db.Model(model).
		Where("version = ?", position.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	position.Version = model.Version
	return nil
}

func (r *GormPositionRepository) scoped(query *gorm.DB, entityID uuid.UUID, filter shared.Filter) *gorm.DB {
	query = query.Where("entity_id = ?", entityID)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if symbol, ok := filter.Filters["symbol"].(string); ok && symbol != "" {
		query = query.Where("symbol = ?", strings.ToUpper(symbol))
	}
	return query
}

func positionsToDomain(rows []models.PositionModel) []trading.Position {
	out := make([]trading.Position, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ trading.Repository = (*GormPositionRepository)(nil)
