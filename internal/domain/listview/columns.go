package listview

import (
	"fmt"
	"slices"
	"sort"

	"github.com/crm/backend/internal/domain/fieldkit"
	"github.com/crm/backend/internal/domain/shared"
)

// ColumnDef describes one column of a table
type ColumnDef struct {
	Key            string   `json:"key"`
	Label          string   `json:"label"`
	Type           DataType `json:"type"`
	Options        []string `json:"options,omitempty"`
	DefaultVisible bool     `json:"default_visible"`
	Sortable       bool     `json:"sortable"`
}

// FieldKind maps the column type onto the field rendering kind
func (c ColumnDef) FieldKind() fieldkit.Kind {
	switch c.Type {
	case TypeNumber:
		return fieldkit.KindNumber
	case TypeMoney:
		return fieldkit.KindMoney
	case TypeDate:
		return fieldkit.KindDate
	case TypeSelect:
		return fieldkit.KindSelect
	case TypeBoolean:
		return fieldkit.KindBoolean
	}
	return fieldkit.KindText
}

// Table is a named list with its column catalogue
type Table struct {
	Key     string      `json:"key"`
	Label   string      `json:"label"`
	Columns []ColumnDef `json:"columns"`
}

// Column looks up a column by key
func (t Table) Column(key string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// DefaultState is the column layout used when nothing has been stored
func (t Table) DefaultState() ColumnState {
	state := ColumnState{Order: make([]string, 0, len(t.Columns)), Hidden: []string{}}
	for _, c := range t.Columns {
		state.Order = append(state.Order, c.Key)
		if !c.DefaultVisible {
			state.Hidden = append(state.Hidden, c.Key)
		}
	}
	return ensureVisible(state)
}

// ColumnsKey is the preference key for a table's column layout
func (t Table) ColumnsKey() string { return t.Key + ".columns.v1" }

// ViewsKey is the preference key for a table's saved views
func (t Table) ViewsKey() string { return t.Key + ".views.v1" }

// Registry holds the known tables
type Registry struct {
	tables map[string]Table
}

// NewRegistry creates a registry from tables
func NewRegistry(tables ...Table) *Registry {
	r := &Registry{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		r.tables[t.Key] = t
	}
	return r
}

// Get returns a table or shared.ErrNotFound
func (r *Registry) Get(key string) (Table, error) {
	t, ok := r.tables[key]
	if !ok {
		return Table{}, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("unknown table %q", key))
	}
	return t, nil
}

// All returns the tables sorted by key
func (r *Registry) All() []Table {
	out := make([]Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ColumnState is the stored column layout of a table
type ColumnState struct {
	Order  []string `json:"order"`
	Hidden []string `json:"hidden"`
}

// IsHidden reports whether a column is hidden
func (s ColumnState) IsHidden(key string) bool {
	return slices.Contains(s.Hidden, key)
}

// ReconcileColumns fits a stored layout onto the current column catalogue.
// Unknown keys are dropped and returned; columns missing from the stored
// order are appended in catalogue order with their default visibility. At
// least one column stays visible.
func ReconcileColumns(table Table, stored ColumnState) (ColumnState, []string) {
	if len(stored.Order) == 0 {
		return table.DefaultState(), nil
	}

	var dropped []string
	seen := make(map[string]bool, len(stored.Order))
	order := make([]string, 0, len(table.Columns))
	for _, key := range stored.Order {
		if _, ok := table.Column(key); !ok {
			dropped = append(dropped, key)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		order = append(order, key)
	}

	hidden := []string{}
	for _, key := range stored.Hidden {
		if _, ok := table.Column(key); !ok {
			if !slices.Contains(dropped, key) {
				dropped = append(dropped, key)
			}
			continue
		}
		if seen[key] && !slices.Contains(hidden, key) {
			hidden = append(hidden, key)
		}
	}

	for _, col := range table.Columns {
		if seen[col.Key] {
			continue
		}
		order = append(order, col.Key)
		seen[col.Key] = true
		if !col.DefaultVisible {
			hidden = append(hidden, col.Key)
		}
	}

	return ensureVisible(ColumnState{Order: order, Hidden: hidden}), dropped
}

func ensureVisible(state ColumnState) ColumnState {
	for _, key := range state.Order {
		if !state.IsHidden(key) {
			return state
		}
	}
	if len(state.Order) > 0 {
		first := state.Order[0]
		state.Hidden = slices.DeleteFunc(slices.Clone(state.Hidden), func(k string) bool { return k == first })
	}
	return state
}

// VisibleColumns returns the visible column definitions in display order
func VisibleColumns(table Table, state ColumnState) []ColumnDef {
	out := make([]ColumnDef, 0, len(state.Order))
	for _, key := range state.Order {
		if state.IsHidden(key) {
			continue
		}
		if col, ok := table.Column(key); ok {
			out = append(out, col)
		}
	}
	return out
}

// MoveColumn moves key to toIndex; the index is clamped to the order bounds
func MoveColumn(state ColumnState, key string, toIndex int) (ColumnState, error) {
	from := slices.Index(state.Order, key)
	if from < 0 {
		return state, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unknown column %q", key))
	}
	order := slices.Delete(slices.Clone(state.Order), from, from+1)
	toIndex = max(0, min(toIndex, len(order)))
	order = slices.Insert(order, toIndex, key)
	return ColumnState{Order: order, Hidden: slices.Clone(state.Hidden)}, nil
}

// SetColumnHidden shows or hides a column. Hiding the last visible column
// is rejected.
func SetColumnHidden(state ColumnState, key string, hidden bool) (ColumnState, error) {
	if !slices.Contains(state.Order, key) {
		return state, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unknown column %q", key))
	}
	next := ColumnState{Order: slices.Clone(state.Order)}
	next.Hidden = slices.DeleteFunc(slices.Clone(state.Hidden), func(k string) bool { return k == key })
	if hidden {
		next.Hidden = append(next.Hidden, key)
		if len(VisibleKeys(next)) == 0 {
			return state, shared.NewDomainError("INVALID_INPUT", "at least one column must stay visible")
		}
	}
	return next, nil
}

// VisibleKeys returns the visible keys in order
func VisibleKeys(state ColumnState) []string {
	var keys []string
	for _, key := range state.Order {
		if !state.IsHidden(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// ConditionIssue describes why a condition cannot be saved
type ConditionIssue struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (i ConditionIssue) String() string {
	return fmt.Sprintf("condition %d (%s): %s", i.Index+1, i.Field, i.Reason)
}

// ValidateConditions reports every condition that is not fully usable on table
func ValidateConditions(table Table, conds []Condition) []ConditionIssue {
	var issues []ConditionIssue
	for i, c := range conds {
		col, ok := table.Column(c.Field)
		switch {
		case !ok:
			issues = append(issues, ConditionIssue{i, c.Field, "unknown column"})
		case !col.Type.Supports(c.Operator):
			issues = append(issues, ConditionIssue{i, c.Field, fmt.Sprintf("operator %q not allowed for %s columns", c.Operator, col.Type)})
		case !c.Complete():
			issues = append(issues, ConditionIssue{i, c.Field, "missing value"})
		}
	}
	return issues
}
