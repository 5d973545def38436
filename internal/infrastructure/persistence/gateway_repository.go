package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormGatewayRepository implements finance.GatewayRepository using GORM
type GormGatewayRepository struct {
	db *gorm.DB
}

// NewGormGatewayRepository creates a new GormGatewayRepository
func NewGormGatewayRepository(db *gorm.DB) *GormGatewayRepository {
	return &GormGatewayRepository{db: db}
}

// FindByID finds a gateway by its ID
func (r *GormGatewayRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Gateway, error) {
	var model models.GatewayModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists gateways by name
func (r *GormGatewayRepository) FindAll(ctx context.Context, enabledOnly bool) ([]finance.Gateway, error) {
	query := conn(ctx, r.db).Order("name ASC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	var rows []models.GatewayModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.Gateway, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// ExistsByName checks for another gateway with the same name, ignoring case
func (r *GormGatewayRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&models.GatewayModel{}).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a gateway
func (r *GormGatewayRepository) Save(ctx context.Context, gateway *finance.Gateway) error {
	return conn(ctx, r.db).Save(models.GatewayModelFromDomain(gateway)).Error
}

// Delete deletes a gateway
func (r *GormGatewayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.GatewayModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IsInUse reports whether any transaction references the gateway
func (r *GormGatewayRepository) IsInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.TransactionModel{}).Where("gateway_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ finance.GatewayRepository = (*GormGatewayRepository)(nil)
