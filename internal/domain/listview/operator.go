// Package listview holds the list filtering, sorting, column layout and
// saved view rules shared by every CRM table.
package listview

import "slices"

// DataType is the value type of a column
type DataType string

const (
	TypeText    DataType = "text"
	TypeNumber  DataType = "number"
	TypeMoney   DataType = "money"
	TypeDate    DataType = "date"
	TypeSelect  DataType = "select"
	TypeBoolean DataType = "boolean"
)

// IsValid reports whether t is a known data type
func (t DataType) IsValid() bool {
	_, ok := operatorTable[t]
	return ok
}

// Operator is a filter predicate
type Operator string

const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpBetween     Operator = "between"
	OpNotBetween  Operator = "not_between"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
)

var (
	comparableOps = []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpBetween, OpNotBetween, OpIsEmpty, OpIsNotEmpty}

	operatorTable = map[DataType][]Operator{
		TypeText:    {OpEq, OpNeq, OpContains, OpNotContains, OpStartsWith, OpEndsWith, OpIn, OpNotIn, OpIsEmpty, OpIsNotEmpty},
		TypeNumber:  comparableOps,
		TypeMoney:   comparableOps,
		TypeDate:    comparableOps,
		TypeSelect:  {OpEq, OpNeq, OpIn, OpNotIn, OpIsEmpty, OpIsNotEmpty},
		TypeBoolean: {OpEq, OpNeq, OpIsEmpty, OpIsNotEmpty},
	}
)

// OperatorsFor returns the operators applicable to a data type, in display order
func OperatorsFor(t DataType) []Operator {
	return slices.Clone(operatorTable[t])
}

// Supports reports whether op may be used on columns of type t
func (t DataType) Supports(op Operator) bool {
	return slices.Contains(operatorTable[t], op)
}

// NeedsValue reports whether the operator compares against a value
func (o Operator) NeedsValue() bool {
	return o != OpIsEmpty && o != OpIsNotEmpty
}

// IsRange reports whether the operator takes a [from, to] pair
func (o Operator) IsRange() bool {
	return o == OpBetween || o == OpNotBetween
}

// IsList reports whether the operator takes a list of values
func (o Operator) IsList() bool {
	return o == OpIn || o == OpNotIn
}

// negated operators hold for empty cells
func (o Operator) negated() bool {
	switch o {
	case OpNeq, OpNotContains, OpNotBetween, OpNotIn:
		return true
	}
	return false
}
