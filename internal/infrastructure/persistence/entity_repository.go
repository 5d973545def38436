package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEntityRepository implements lead.EntityRepository using GORM
type GormEntityRepository struct {
	db *gorm.DB
}

// NewGormEntityRepository creates a new GormEntityRepository
func NewGormEntityRepository(db *gorm.DB) *GormEntityRepository {
	return &GormEntityRepository{db: db}
}

// FindByID finds a lead or client by its ID
func (r *GormEntityRepository) FindByID(ctx context.Context, id uuid.UUID) (*lead.Entity, error) {
	var model models.EntityModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a contact by email, ignoring case
func (r *GormEntityRepository) FindByEmail(ctx context.Context, email string) (*lead.Entity, error) {
	if email == "" {
		return nil, shared.ErrNotFound
	}
	var model models.EntityModel
	if err := conn(ctx, r.db).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds contacts matching the filter
func (r *GormEntityRepository) FindAll(ctx context.Context, filter shared.Filter) ([]lead.Entity, error) {
	var rows []models.EntityModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.EntityModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return entitiesToDomain(rows), nil
}

// FindByStage loads every contact of a stage, newest first
func (r *GormEntityRepository) FindByStage(ctx context.Context, stage lead.Stage) ([]lead.Entity, error) {
	var rows []models.EntityModel
	if err := conn(ctx, r.db).
		Where("stage = ?", stage).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return entitiesToDomain(rows), nil
}

// Count counts contacts matching the filter
func (r *GormEntityRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(conn(ctx, r.db).Model(&models.EntityModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByEmail checks if a contact with the given email exists
func (r *GormEntityRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	if err := conn(ctx, r.db).
		Model(&models.EntityModel{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or fully updates a contact
func (r *GormEntityRepository) Save(ctx context.Context, entity *lead.Entity) error {
	return conn(ctx, r.db).Save(models.EntityModelFromDomain(entity)).Error
}

// SaveWithLock updates a contact only if its version is unchanged since it
// was loaded, then bumps the version
func (r *GormEntityRepository) SaveWithLock(ctx context.Context, entity *lead.Entity) error {
	model := models.EntityModelFromDomain(entity)
	model.Version = entity.Version + 1
	result := conn(ctx, r.db).
		Model(model).
		Where("version = ?", entity.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	entity.IncrementVersion()
	return nil
}

// Delete deletes a contact
func (r *GormEntityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.EntityModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormEntityRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query.Order(orderClause(filter.OrderBy, filter.OrderDir, EntitySortFields, "created_at"))
}

func (r *GormEntityRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			p, p, p, p)
	}

	for key, value := range filter.Filters {
		switch key {
		case "stage":
			query = query.Where("stage = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "owner_id":
			query = query.Where("owner_id = ?", value)
		case "unassigned":
			if value == true {
				query = query.Where("owner_id IS NULL")
			}
		case "campaign":
			query = query.Where("campaign = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		case "account_type_id":
			query = query.Where("account_type_id = ?", value)
		case "country":
			query = query.Where("country = ?", value)
		case "ftd":
			query = query.Where("ftd = ?", value == true)
		}
	}
	return query
}

func entitiesToDomain(rows []models.EntityModel) []lead.Entity {
	out := make([]lead.Entity, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ lead.EntityRepository = (*GormEntityRepository)(nil)
