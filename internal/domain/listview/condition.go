package listview

import (
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/fieldkit"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Condition is one filter row: field, operator and operand
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Match combines conditions
type Match string

const (
	MatchAll Match = "all"
	MatchAny Match = "any"
)

// IsValid reports whether m is a known match mode
func (m Match) IsValid() bool {
	return m == MatchAll || m == MatchAny
}

// Complete reports whether the condition carries everything its operator needs
func (c Condition) Complete() bool {
	if c.Field == "" || c.Operator == "" {
		return false
	}
	if !c.Operator.NeedsValue() {
		return true
	}
	switch {
	case c.Operator.IsRange():
		from, to, ok := rangeBounds(c.Value)
		return ok && !isEmpty(from) && !isEmpty(to)
	case c.Operator.IsList():
		return len(valueList(c.Value)) > 0
	}
	return !isEmpty(c.Value)
}

// EvaluateCondition applies a condition to a single cell value.
// Incomplete conditions pass every cell.
func EvaluateCondition(dataType DataType, cell any, cond Condition) bool {
	switch cond.Operator {
	case OpIsEmpty:
		return isEmpty(cell)
	case OpIsNotEmpty:
		return !isEmpty(cell)
	}
	if !cond.Complete() || !dataType.Supports(cond.Operator) {
		return true
	}
	if isEmpty(cell) {
		return cond.Operator.negated()
	}

	switch dataType {
	case TypeText, TypeSelect:
		return evalText(cell, cond)
	case TypeNumber, TypeMoney:
		return evalOrdered(cell, cond, compareDecimal)
	case TypeDate:
		return evalOrdered(cell, cond, compareDay)
	case TypeBoolean:
		return evalBool(cell, cond)
	}
	return true
}

func evalText(cell any, cond Condition) bool {
	folder := cases.Fold()
	text := folder.String(cellString(cell))
	operand := func(v any) string { return folder.String(cellString(v)) }

	switch cond.Operator {
	case OpEq:
		return text == operand(cond.Value)
	case OpNeq:
		return text != operand(cond.Value)
	case OpContains:
		return strings.Contains(text, operand(cond.Value))
	case OpNotContains:
		return !strings.Contains(text, operand(cond.Value))
	case OpStartsWith:
		return strings.HasPrefix(text, operand(cond.Value))
	case OpEndsWith:
		return strings.HasSuffix(text, operand(cond.Value))
	case OpIn, OpNotIn:
		found := false
		for _, v := range valueList(cond.Value) {
			if text == operand(v) {
				found = true
				break
			}
		}
		return found == (cond.Operator == OpIn)
	}
	return false
}

// compareFn returns -1, 0 or 1, and false when either side cannot be read
type compareFn func(a, b any) (int, bool)

func evalOrdered(cell any, cond Condition, cmp compareFn) bool {
	if cond.Operator.IsRange() {
		from, to, _ := rangeBounds(cond.Value)
		lo, ok1 := cmp(cell, from)
		hi, ok2 := cmp(cell, to)
		if !ok1 || !ok2 {
			return false
		}
		// reversed bounds are swapped
		if bounds, ok := cmp(from, to); ok && bounds > 0 {
			lo, hi = hi, lo
		}
		inside := lo >= 0 && hi <= 0
		return inside == (cond.Operator == OpBetween)
	}

	c, ok := cmp(cell, cond.Value)
	if !ok {
		return false
	}
	switch cond.Operator {
	case OpEq:
		return c == 0
	case OpNeq:
		return c != 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	}
	return false
}

func evalBool(cell any, cond Condition) bool {
	a, ok1 := fieldkit.ToBool(cell)
	b, ok2 := fieldkit.ToBool(cond.Value)
	if !ok1 || !ok2 {
		return false
	}
	switch cond.Operator {
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	}
	return false
}

func compareDecimal(a, b any) (int, bool) {
	x, ok1 := fieldkit.ToDecimal(a)
	y, ok2 := fieldkit.ToDecimal(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	return x.Cmp(y), true
}

func compareDay(a, b any) (int, bool) {
	x, ok1 := fieldkit.ToTime(a)
	y, ok2 := fieldkit.ToTime(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	return truncateDay(x).Compare(truncateDay(y)), true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// rangeBounds reads a two element list or a {"from","to"} object
func rangeBounds(v any) (any, any, bool) {
	switch r := v.(type) {
	case map[string]any:
		return r["from"], r["to"], true
	case map[string]string:
		return r["from"], r["to"], true
	}
	list := valueList(v)
	if len(list) != 2 {
		return nil, nil, false
	}
	return list[0], list[1], true
}

// valueList reads a list operand; comma separated strings are split
func valueList(v any) []any {
	var out []any
	switch l := v.(type) {
	case []any:
		out = l
	case []string:
		for _, s := range l {
			out = append(out, s)
		}
	case []decimal.Decimal:
		for _, d := range l {
			out = append(out, d)
		}
	case string:
		for _, s := range strings.Split(l, ",") {
			out = append(out, strings.TrimSpace(s))
		}
	case nil:
		return nil
	default:
		out = []any{v}
	}
	filtered := out[:0:0]
	for _, item := range out {
		if !isEmpty(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func isEmpty(v any) bool {
	if fieldkit.IsNil(v) {
		return true
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case time.Time:
		return x.IsZero()
	case *time.Time:
		return x.IsZero()
	case *string:
		return strings.TrimSpace(*x) == ""
	}
	return false
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *string:
		return *x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
