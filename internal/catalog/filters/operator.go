// internal/catalog/filters/operator.go
package filters

import "strings"

// Operator is the backend comparison a filter value is sent with.
type Operator string

const (
	OpEqual              Operator = "equal"
	OpNotEqual           Operator = "not_equal"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "not_in"
	OpContains           Operator = "contains"
	OpStartsWith         Operator = "starts_with"
	OpEndsWith           Operator = "ends_with"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpRange              Operator = "range"
)

var knownOperators = map[Operator]bool{
	OpEqual: true, OpNotEqual: true, OpIn: true, OpNotIn: true,
	OpContains: true, OpStartsWith: true, OpEndsWith: true,
	OpGreaterThan: true, OpGreaterThanOrEqual: true,
	OpLessThan: true, OpLessThanOrEqual: true,
	OpRange: true,
}

// Operators returns every supported operator, longest name first so that
// suffix matching on parameter names never stops at a shorter operator.
func Operators() []Operator {
	return []Operator{
		OpGreaterThanOrEqual, OpLessThanOrEqual, OpGreaterThan, OpLessThan,
		OpStartsWith, OpNotEqual, OpEndsWith, OpContains, OpNotIn,
		OpEqual, OpRange, OpIn,
	}
}

func (o Operator) IsKnown() bool {
	return knownOperators[o]
}

// IsMultiValued reports whether repeated values accumulate into one list.
func (o Operator) IsMultiValued() bool {
	switch o {
	case OpEqual, OpNotEqual, OpIn, OpNotIn, OpContains, OpStartsWith, OpEndsWith:
		return true
	}
	return false
}

// IsNumeric reports whether repeated values collapse to a single bound.
func (o Operator) IsNumeric() bool {
	switch o {
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return true
	}
	return false
}

// IsLowerBound is true for greater_than and greater_than_or_equal.
func (o Operator) IsLowerBound() bool {
	return o == OpGreaterThan || o == OpGreaterThanOrEqual
}

func (o Operator) IsUpperBound() bool {
	return o == OpLessThan || o == OpLessThanOrEqual
}

// ParseOperator normalizes s and reports whether it names a supported operator.
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	return op, op.IsKnown()
}

// OperatorMode selects whether one operator covers the whole filter or each
// selectable option carries its own.
type OperatorMode string

const (
	ModeColumn   OperatorMode = "column"
	ModePerValue OperatorMode = "per-value"
)

type ValueConfigType string

const (
	ValuesManual  ValueConfigType = "manual"
	ValuesDynamic ValueConfigType = "dynamic"
	ValuesMixed   ValueConfigType = "mixed"
)
