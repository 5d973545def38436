package handler

import (
	"github.com/crm/backend/internal/application/listview"
	domain "github.com/crm/backend/internal/domain/listview"
)

// ColumnStateRequest is a full column layout
type ColumnStateRequest struct {
	Order  []string `json:"order" binding:"max=200"`
	Hidden []string `json:"hidden" binding:"max=200"`
}

// MoveColumnRequest moves one column to a new position in the order
type MoveColumnRequest struct {
	Column  string `json:"column" binding:"required,max=64"`
	ToIndex int    `json:"to_index" binding:"gte=0"`
}

// ColumnVisibilityRequest shows or hides one column
type ColumnVisibilityRequest struct {
	Column string `json:"column" binding:"required,max=64"`
	Hidden bool   `json:"hidden"`
}

// ViewRequestBody represents a saved view
type ViewRequestBody struct {
	Name       string             `json:"name" binding:"required,max=100"`
	Columns    ColumnStateRequest `json:"columns"`
	Conditions []domain.Condition `json:"conditions" binding:"max=50"`
	Match      string             `json:"match" binding:"omitempty,oneof=all any"`
	SortBy     string             `json:"sort_by" binding:"max=64"`
	SortDir    string             `json:"sort_dir" binding:"omitempty,oneof=asc desc"`
	IsDefault  bool               `json:"is_default"`
	Shared     bool               `json:"shared"`
}

// QueryRequestBody selects rows of a table. With view_id the saved view
// supplies whatever the request leaves empty.
type QueryRequestBody struct {
	ViewID     string             `json:"view_id" binding:"omitempty,uuid"`
	Conditions []domain.Condition `json:"conditions" binding:"max=50"`
	Match      string             `json:"match" binding:"omitempty,oneof=all any"`
	SortBy     string             `json:"sort_by" binding:"max=64"`
	SortDir    string             `json:"sort_dir" binding:"omitempty,oneof=asc desc"`
	Page       int                `json:"page" binding:"gte=0,max=1000000"`
	PageSize   int                `json:"page_size" binding:"gte=0"`
}

// ExportRequestBody is a query plus output options
type ExportRequestBody struct {
	QueryRequestBody
	Delivery string `json:"delivery" binding:"omitempty,oneof=stream stored"`
	BOM      bool   `json:"bom"`
}

func (r ColumnStateRequest) toState() domain.ColumnState {
	return domain.ColumnState{Order: r.Order, Hidden: r.Hidden}
}

func (r ViewRequestBody) toRequest() listview.ViewRequest {
	return listview.ViewRequest{
		Name:       r.Name,
		Columns:    r.Columns.toState(),
		Conditions: r.Conditions,
		Match:      r.Match,
		SortBy:     r.SortBy,
		SortDir:    r.SortDir,
		IsDefault:  r.IsDefault,
		Shared:     r.Shared,
	}
}

func (r QueryRequestBody) toRequest() listview.QueryRequest {
	viewID, _ := parseOptionalUUID(r.ViewID)
	return listview.QueryRequest{
		ViewID:     viewID,
		Conditions: r.Conditions,
		Match:      r.Match,
		SortBy:     r.SortBy,
		SortDir:    r.SortDir,
		Page:       r.Page,
		PageSize:   r.PageSize,
	}
}
