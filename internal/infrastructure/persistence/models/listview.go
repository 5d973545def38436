package models

import (
	"time"

	"github.com/crm/backend/internal/domain/listview"
	"github.com/google/uuid"
)

// ListViewModel is the persistence model for a saved list view.
type ListViewModel struct {
	BaseModel
	OwnerID    uuid.UUID            `gorm:"type:uuid;not null;index:idx_list_view_owner_table,priority:1"`
	TableKey   string               `gorm:"column:table_key;type:varchar(50);not null;index:idx_list_view_owner_table,priority:2"`
	Name       string               `gorm:"type:varchar(80);not null"`
	Columns    listview.ColumnState `gorm:"type:text;serializer:json"`
	Conditions []listview.Condition `gorm:"type:text;serializer:json"`
	Match      listview.Match       `gorm:"type:varchar(3);not null"`
	SortBy     string               `gorm:"type:varchar(50)"`
	SortDir    listview.SortDir     `gorm:"type:varchar(4)"`
	IsDefault  bool                 `gorm:"not null"`
	Shared     bool                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ListViewModel) TableName() string {
	return "list_views"
}

// ToDomain converts the persistence model to a domain View.
func (m *ListViewModel) ToDomain() *listview.View {
	return &listview.View{
		BaseEntity: m.BaseModel.ToDomain(),
		OwnerID:    m.OwnerID,
		Table:      m.TableKey,
		Name:       m.Name,
		Columns:    m.Columns,
		Conditions: m.Conditions,
		Match:      m.Match,
		SortBy:     m.SortBy,
		SortDir:    m.SortDir,
		IsDefault:  m.IsDefault,
		Shared:     m.Shared,
	}
}

// ListViewModelFromDomain creates a persistence model from a domain View.
func ListViewModelFromDomain(v *listview.View) *ListViewModel {
	m := &ListViewModel{
		OwnerID:    v.OwnerID,
		TableKey:   v.Table,
		Name:       v.Name,
		Columns:    v.Columns,
		Conditions: v.Conditions,
		Match:      v.Match,
		SortBy:     v.SortBy,
		SortDir:    v.SortDir,
		IsDefault:  v.IsDefault,
		Shared:     v.Shared,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}

// ColumnPreferenceModel stores one user's column layout under a storage key
// such as "leads.columns.v1".
type ColumnPreferenceModel struct {
	UserID    uuid.UUID            `gorm:"type:uuid;primaryKey"`
	Key       string               `gorm:"column:storage_key;type:varchar(100);primaryKey"`
	State     listview.ColumnState `gorm:"type:text;serializer:json;not null"`
	UpdatedAt time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ColumnPreferenceModel) TableName() string {
	return "column_preferences"
}

