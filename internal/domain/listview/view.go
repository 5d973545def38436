package listview

import (
	"context"
	"fmt"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const maxViewNameLength = 80

// View is a saved combination of columns, filters and sort for a table
type View struct {
	shared.BaseEntity
	OwnerID    uuid.UUID
	Table      string
	Name       string
	Columns    ColumnState
	Conditions []Condition
	Match      Match
	SortBy     string
	SortDir    SortDir
	IsDefault  bool
	Shared     bool
}

// ViewInput carries the editable attributes of a view
type ViewInput struct {
	Name       string
	Columns    ColumnState
	Conditions []Condition
	Match      Match
	SortBy     string
	SortDir    SortDir
	IsDefault  bool
	Shared     bool
}

// NewView creates a view after checking it against the table
func NewView(ownerID uuid.UUID, table Table, in ViewInput) (*View, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "view owner is required")
	}
	v := &View{
		BaseEntity: shared.NewBaseEntity(),
		OwnerID:    ownerID,
		Table:      table.Key,
	}
	if err := v.apply(table, in); err != nil {
		return nil, err
	}
	return v, nil
}

// Update replaces the editable attributes
func (v *View) Update(table Table, in ViewInput) error {
	if table.Key != v.Table {
		return shared.NewDomainError("INVALID_INPUT", "view belongs to another table")
	}
	if err := v.apply(table, in); err != nil {
		return err
	}
	v.Touch()
	return nil
}

func (v *View) apply(table Table, in ViewInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "view name is required")
	}
	if len([]rune(name)) > maxViewNameLength {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("view name must be at most %d characters", maxViewNameLength))
	}

	match := in.Match
	if match == "" {
		match = MatchAll
	}
	if !match.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid match mode %q", in.Match))
	}

	if issues := ValidateConditions(table, in.Conditions); len(issues) > 0 {
		msgs := make([]string, len(issues))
		for i, issue := range issues {
			msgs[i] = issue.String()
		}
		return shared.NewDomainError("INVALID_INPUT", "invalid filter: "+strings.Join(msgs, "; "))
	}

	sortDir := in.SortDir
	if in.SortBy != "" {
		col, ok := table.Column(in.SortBy)
		if !ok || !col.Sortable {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("cannot sort by %q", in.SortBy))
		}
		if sortDir == "" {
			sortDir = SortAsc
		}
		if sortDir != SortAsc && sortDir != SortDesc {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid sort direction %q", in.SortDir))
		}
	} else {
		sortDir = ""
	}

	columns, _ := ReconcileColumns(table, in.Columns)

	v.Name = name
	v.Columns = columns
	v.Conditions = in.Conditions
	v.Match = match
	v.SortBy = in.SortBy
	v.SortDir = sortDir
	v.IsDefault = in.IsDefault
	v.Shared = in.Shared
	return nil
}

// CheckNameAvailable rejects a name already used by another view in the set
func CheckNameAvailable(existing []View, candidate *View) error {
	for _, other := range existing {
		if other.ID == candidate.ID || other.OwnerID != candidate.OwnerID || other.Table != candidate.Table {
			continue
		}
		if strings.EqualFold(other.Name, candidate.Name) {
			return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("a view named %q already exists", candidate.Name))
		}
	}
	return nil
}

// ViewRepository persists saved views
type ViewRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*View, error)
	// FindVisible returns the owner's views plus views shared by others
	FindVisible(ctx context.Context, ownerID uuid.UUID, table string) ([]View, error)
	FindOwned(ctx context.Context, ownerID uuid.UUID, table string) ([]View, error)
	Save(ctx context.Context, view *View) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearDefault unsets the default flag on the owner's other views
	ClearDefault(ctx context.Context, ownerID uuid.UUID, table string, exceptID uuid.UUID) error
	// WithTx runs fn with a repository bound to one transaction
	WithTx(ctx context.Context, fn func(repo ViewRepository) error) error
}

// ColumnPreferenceRepository persists per-user column layouts
type ColumnPreferenceRepository interface {
	// Find returns the stored layout; false when none was stored
	Find(ctx context.Context, userID uuid.UUID, key string) (ColumnState, bool, error)
	Save(ctx context.Context, userID uuid.UUID, key string, state ColumnState) error
	Delete(ctx context.Context, userID uuid.UUID, key string) error
}
