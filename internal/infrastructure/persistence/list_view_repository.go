package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/listview"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormViewRepository implements listview.ViewRepository using GORM
type GormViewRepository struct {
	db *gorm.DB
}

// NewGormViewRepository creates a new GormViewRepository
func NewGormViewRepository(db *gorm.DB) *GormViewRepository {
	return &GormViewRepository{db: db}
}

// FindByID finds a saved view by ID
func (r *GormViewRepository) FindByID(ctx context.Context, id uuid.UUID) (*listview.View, error) {
	var model models.ListViewModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindVisible returns the owner's views plus views shared by others
func (r *GormViewRepository) FindVisible(ctx context.Context, ownerID uuid.UUID, table string) ([]listview.View, error) {
	var rows []models.ListViewModel
	if err := conn(ctx, r.db).
		Where("table_key = ? AND (owner_id = ? OR shared = ?)", table, ownerID, true).
		Order("LOWER(name) ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return viewsToDomain(rows), nil
}

// FindOwned returns only the owner's views
func (r *GormViewRepository) FindOwned(ctx context.Context, ownerID uuid.UUID, table string) ([]listview.View, error) {
	var rows []models.ListViewModel
	if err := conn(ctx, r.db).
		Where("table_key = ? AND owner_id = ?", table, ownerID).
		Order("LOWER(name) ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return viewsToDomain(rows), nil
}

// Save creates or updates a view
func (r *GormViewRepository) Save(ctx context.Context, view *listview.View) error {
	return conn(ctx, r.db).Save(models.ListViewModelFromDomain(view)).Error
}

// Delete deletes a view
func (r *GormViewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.ListViewModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearDefault unsets the default flag on the owner's other views
func (r *GormViewRepository) ClearDefault(ctx context.Context, ownerID uuid.UUID, table string, exceptID uuid.UUID) error {
	return conn(ctx, r.db).
		Model(&models.ListViewModel{}).
		Where("owner_id = ? AND table_key = ? AND id <> ? AND is_default = ?", ownerID, table, exceptID, true).
		Updates(map[string]any{"is_default": false, "updated_at": time.Now()}).Error
}

// WithTx runs fn with a repository bound to one transaction
func (r *GormViewRepository) WithTx(ctx context.Context, fn func(repo listview.ViewRepository) error) error {
	return withTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&GormViewRepository{db: tx})
	})
}

func viewsToDomain(rows []models.ListViewModel) []listview.View {
	out := make([]listview.View, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormColumnPreferenceRepository implements listview.ColumnPreferenceRepository
type GormColumnPreferenceRepository struct {
	db *gorm.DB
}

// NewGormColumnPreferenceRepository creates a new GormColumnPreferenceRepository
func NewGormColumnPreferenceRepository(db *gorm.DB) *GormColumnPreferenceRepository {
	return &GormColumnPreferenceRepository{db: db}
}

// Find returns the stored layout; false when none was stored
func (r *GormColumnPreferenceRepository) Find(ctx context.Context, userID uuid.UUID, key string) (listview.ColumnState, bool, error) {
	var model models.ColumnPreferenceModel
	err := conn(ctx, r.db).Where("user_id = ? AND storage_key = ?", userID, key).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return listview.ColumnState{}, false, nil
		}
		return listview.ColumnState{}, false, err
	}
	return model.State, true, nil
}

// Save upserts the layout stored under key
func (r *GormColumnPreferenceRepository) Save(ctx context.Context, userID uuid.UUID, key string, state listview.ColumnState) error {
	model := models.ColumnPreferenceModel{UserID: userID, Key: key, State: state, UpdatedAt: time.Now()}
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&model).Error
}

// Delete removes the stored layout, restoring defaults
func (r *GormColumnPreferenceRepository) Delete(ctx context.Context, userID uuid.UUID, key string) error {
	return conn(ctx, r.db).Delete(&models.ColumnPreferenceModel{}, "user_id = ? AND storage_key = ?", userID, key).Error
}

var (
	_ listview.ViewRepository             = (*GormViewRepository)(nil)
	_ listview.ColumnPreferenceRepository = (*GormColumnPreferenceRepository)(nil)
)
