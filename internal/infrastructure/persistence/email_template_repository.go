package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/settings"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEmailTemplateRepository implements settings.TemplateRepository using GORM
type GormEmailTemplateRepository struct {
	db *gorm.DB
}

// NewGormEmailTemplateRepository creates a new GormEmailTemplateRepository
func NewGormEmailTemplateRepository(db *gorm.DB) *GormEmailTemplateRepository {
	return &GormEmailTemplateRepository{db: db}
}

// FindByID finds a template by ID
func (r *GormEmailTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*settings.EmailTemplate, error) {
	var model models.EmailTemplateModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists templates by name; an empty category lists all
func (r *GormEmailTemplateRepository) FindAll(ctx context.Context, category settings.Category) ([]settings.EmailTemplate, error) {
	query := conn(ctx, r.db).Order("name ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var rows []models.EmailTemplateModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]settings.EmailTemplate, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// ExistsByName checks for another template with the same name
func (r *GormEmailTemplateRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&models.EmailTemplateModel{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a template
func (r *GormEmailTemplateRepository) Save(ctx context.Context, template *settings.EmailTemplate) error {
	return conn(ctx, r.db).Save(models.EmailTemplateModelFromDomain(template)).Error
}

// Delete deletes a template
func (r *GormEmailTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.EmailTemplateModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ settings.TemplateRepository = (*GormEmailTemplateRepository)(nil)
