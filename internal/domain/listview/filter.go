package listview

import (
	"cmp"
	"slices"
	"strings"

	"github.com/crm/backend/internal/domain/fieldkit"
	"golang.org/x/text/cases"
)

// Record is a row that can be filtered and sorted by column key
type Record interface {
	// Value returns the cell for a column key; false means the record has
	// no such field
	Value(field string) (any, bool)
}

// Filter returns the records matching the conditions. Conditions on
// unknown columns, unsupported operators and incomplete operands are
// skipped. With no applicable condition every record matches.
func Filter[R Record](records []R, table Table, conds []Condition, match Match) []R {
	active := applicable(table, conds)
	if len(active) == 0 {
		return slices.Clone(records)
	}

	out := make([]R, 0, len(records))
	for _, rec := range records {
		if matches(rec, active, match) {
			out = append(out, rec)
		}
	}
	return out
}

type boundCondition struct {
	column ColumnDef
	cond   Condition
}

func applicable(table Table, conds []Condition) []boundCondition {
	var active []boundCondition
	for _, c := range conds {
		col, ok := table.Column(c.Field)
		if !ok || !col.Type.Supports(c.Operator) {
			continue
		}
		if c.Operator.NeedsValue() && !c.Complete() {
			continue
		}
		active = append(active, boundCondition{column: col, cond: c})
	}
	return active
}

func matches(rec Record, active []boundCondition, match Match) bool {
	for _, bc := range active {
		cell, _ := rec.Value(bc.column.Key)
		ok := EvaluateCondition(bc.column.Type, cell, bc.cond)
		if match == MatchAny && ok {
			return true
		}
		if match != MatchAny && !ok {
			return false
		}
	}
	return match != MatchAny
}

// SortDir is a sort direction
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Sort orders records by a column. The sort is stable and empty values go
// last in both directions.
func Sort[R Record](records []R, column ColumnDef, dir SortDir) []R {
	out := slices.Clone(records)
	folder := cases.Fold()
	slices.SortStableFunc(out, func(a, b R) int {
		va, _ := a.Value(column.Key)
		vb, _ := b.Value(column.Key)
		ea, eb := isEmpty(va), isEmpty(vb)
		switch {
		case ea && eb:
			return 0
		case ea:
			return 1
		case eb:
			return -1
		}
		c := compareCells(column.Type, va, vb, folder)
		if dir == SortDesc {
			return -c
		}
		return c
	})
	return out
}

func compareCells(t DataType, a, b any, folder cases.Caser) int {
	switch t {
	case TypeNumber, TypeMoney:
		if c, ok := compareDecimal(a, b); ok {
			return c
		}
	case TypeDate:
		if c, ok := compareDay(a, b); ok {
			return c
		}
	case TypeBoolean:
		if c, ok := compareBool(a, b); ok {
			return c
		}
	}
	return strings.Compare(folder.String(cellString(a)), folder.String(cellString(b)))
}

func compareBool(a, b any) (int, bool) {
	x, ok1 := fieldkit.ToBool(a)
	y, ok2 := fieldkit.ToBool(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	toInt := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	return cmp.Compare(toInt(x), toInt(y)), true
}

// Page slices records for 1-based page numbers
func Page[R any](records []R, page, pageSize int) []R {
	if pageSize <= 0 {
		return records
	}
	if page < 1 {
		page = 1
	}
	// compare in pages so (page-1)*pageSize cannot overflow
	if len(records) == 0 || page-1 > (len(records)-1)/pageSize {
		return []R{}
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(records)-start)
	return records[start:end]
}
