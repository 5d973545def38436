package persistence

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountTypeRepository implements accounttype.Repository using GORM.
// Asset rules are stored in their own table and replaced as a set on save.
type GormAccountTypeRepository struct {
	db *gorm.DB
}

// NewGormAccountTypeRepository creates a new GormAccountTypeRepository
func NewGormAccountTypeRepository(db *gorm.DB) *GormAccountTypeRepository {
	return &GormAccountTypeRepository{db: db}
}

func (r *GormAccountTypeRepository) withRules(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Preload("Rules", func(db *gorm.DB) *gorm.DB {
		return db.Order("asset_class ASC")
	})
}

// FindByID finds an account type with its rules
func (r *GormAccountTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounttype.AccountType, error) {
	var model models.AccountTypeModel
	if err := r.withRules(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByName finds an account type by name, ignoring case
func (r *GormAccountTypeRepository) FindByName(ctx context.Context, name string) (*accounttype.AccountType, error) {
	var model models.AccountTypeModel
	if err := r.withRules(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindDefault finds the default account type
func (r *GormAccountTypeRepository) FindDefault(ctx context.Context) (*accounttype.AccountType, error) {
	var model models.AccountTypeModel
	if err := r.withRules(ctx).Where("is_default = ?", true).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists account types by name
func (r *GormAccountTypeRepository) FindAll(ctx context.Context) ([]accounttype.AccountType, error) {
	var rows []models.AccountTypeModel
	if err := r.withRules(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]accounttype.AccountType, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// ExistsByName checks for another account type with the same name
func (r *GormAccountTypeRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&models.AccountTypeModel{}).
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

// Save upserts the account type and replaces its rule set
func (r *GormAccountTypeRepository) Save(ctx context.Context, accountType *accounttype.AccountType) error {
	model := models.AccountTypeModelFromDomain(accountType)
	return withTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit("Rules").Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("account_type_id = ?", model.ID).Delete(&models.AssetRuleModel{}).Error; err != nil {
			return err
		}
		if len(model.Rules) == 0 {
			return nil
		}
		return tx.Create(&model.Rules).Error
	})
}

// Delete deletes an account type and its rules
func (r *GormAccountTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("account_type_id = ?", id).Delete(&models.AssetRuleModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.AccountTypeModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ClearDefault unsets the default flag on every type except keepID
func (r *GormAccountTypeRepository) ClearDefault(ctx context.Context, keepID uuid.UUID) error {
	return conn(ctx, r.db).
		Model(&models.AccountTypeModel{}).
		Where("is_default = ? AND id <> ?", true, keepID).
		Update("is_default", false).Error
}

// WithTx runs fn with a repository bound to one transaction
func (r *GormAccountTypeRepository) WithTx(ctx context.Context, fn func(repo accounttype.Repository) error) error {
	return withTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&GormAccountTypeRepository{db: tx})
	})
}

var _ accounttype.Repository = (*GormAccountTypeRepository)(nil)
