package listview

import (
	"time"

	"github.com/crm/backend/internal/domain/listview"
	"github.com/google/uuid"
)

// ColumnResponse is a column definition with its filter operators
type ColumnResponse struct {
	listview.ColumnDef
	Operators []listview.Operator `json:"operators"`
}

// TableResponse describes a table for the list UI
type TableResponse struct {
	Key     string           `json:"key"`
	Label   string           `json:"label"`
	Columns []ColumnResponse `json:"columns"`
}

// ToTableResponse converts a table definition
func ToTableResponse(t listview.Table) TableResponse {
	cols := make([]ColumnResponse, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = ColumnResponse{ColumnDef: c, Operators: listview.OperatorsFor(c.Type)}
	}
	return TableResponse{Key: t.Key, Label: t.Label, Columns: cols}
}

// ColumnsResponse is a user's column layout for a table
type ColumnsResponse struct {
	Table   string               `json:"table"`
	Key     string               `json:"key"`
	State   listview.ColumnState `json:"state"`
	Visible []listview.ColumnDef `json:"visible"`
	Dropped []string             `json:"dropped,omitempty"`
}

// ViewRequest carries the editable attributes of a saved view
type ViewRequest struct {
	Name       string
	Columns    listview.ColumnState
	Conditions []listview.Condition
	Match      string
	SortBy     string
	SortDir    string
	IsDefault  bool
	Shared     bool
}

func (r ViewRequest) toDomain() listview.ViewInput {
	return listview.ViewInput{
		Name:       r.Name,
		Columns:    r.Columns,
		Conditions: r.Conditions,
		Match:      listview.Match(r.Match),
		SortBy:     r.SortBy,
		SortDir:    listview.SortDir(r.SortDir),
		IsDefault:  r.IsDefault,
		Shared:     r.Shared,
	}
}

// ViewResponse is the API view of a saved view
type ViewResponse struct {
	ID         uuid.UUID            `json:"id"`
	OwnerID    uuid.UUID            `json:"owner_id"`
	Table      string               `json:"table"`
	Name       string               `json:"name"`
	Columns    listview.ColumnState `json:"columns"`
	Conditions []listview.Condition `json:"conditions"`
	Match      string               `json:"match"`
	SortBy     string               `json:"sort_by,omitempty"`
	SortDir    string               `json:"sort_dir,omitempty"`
	IsDefault  bool                 `json:"is_default"`
	Shared     bool                 `json:"shared"`
	Owned      bool                 `json:"owned"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ToViewResponse converts a view; owned is set when viewer owns it
func ToViewResponse(v *listview.View, viewer uuid.UUID) ViewResponse {
	conds := v.Conditions
	if conds == nil {
		conds = []listview.Condition{}
	}
	return ViewResponse{
		ID:         v.ID,
		OwnerID:    v.OwnerID,
		Table:      v.Table,
		Name:       v.Name,
		Columns:    v.Columns,
		Conditions: conds,
		Match:      string(v.Match),
		SortBy:     v.SortBy,
		SortDir:    string(v.SortDir),
		IsDefault:  v.IsDefault,
		Shared:     v.Shared,
		Owned:      v.OwnerID == viewer,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

// QueryRequest selects rows of a table. Fields left empty fall back to the
// saved view when ViewID is set.
type QueryRequest struct {
	ViewID     *uuid.UUID
	Conditions []listview.Condition
	Match      string
	SortBy     string
	SortDir    string
	Page       int
	PageSize   int
}

// QueryResult is one page of rows restricted to the visible columns. Total
// counts every match; when Truncated is set only the first MaxQueryRows
// matches can be paged.
type QueryResult struct {
	Columns   []listview.ColumnDef `json:"columns"`
	Rows      []map[string]any     `json:"rows"`
	Total     int                  `json:"total"`
	Page      int                  `json:"page"`
	PageSize  int                  `json:"page_size"`
	Truncated bool                 `json:"truncated"`
	// Ignored lists conditions skipped because they are incomplete or
	// invalid for the table
	Ignored []listview.ConditionIssue `json:"ignored,omitempty"`
}

// Export delivery modes
const (
	DeliveryStream = "stream"
	DeliveryStored = "stored"
)

// ExportRequest is a query plus output options; paging is ignored
type ExportRequest struct {
	QueryRequest
	Delivery string
	BOM      bool
}

// ExportFile is a generated CSV. Data is set for streamed exports, URL for
// stored ones.
type ExportFile struct {
	Name        string     `json:"name"`
	ContentType string     `json:"content_type"`
	Rows        int        `json:"rows"`
	Data        []byte     `json:"-"`
	ObjectKey   string     `json:"object_key,omitempty"`
	URL         string     `json:"url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
