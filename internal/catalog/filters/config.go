// internal/catalog/filters/config.go
package filters

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFilterID     = errors.New("filter id is required")
	ErrMissingColumn       = errors.New("filter column is required")
	ErrInvalidOperatorMode = errors.New("invalid operator mode")
	ErrInvalidValueType    = errors.New("invalid value config type")
)

type ManualValue struct {
	Label    string   `json:"label,omitempty"`
	Value    string   `json:"value"`
	Operator Operator `json:"operator,omitempty"`
}

type DynamicValue struct {
	Value    string   `json:"value"`
	Operator Operator `json:"operator,omitempty"`
}

// RangeDefinition is a labelled numeric interval a user can pick.
type RangeDefinition struct {
	Label    string   `json:"label"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Operator Operator `json:"operator,omitempty"`
}

type ValueConfig struct {
	Type          ValueConfigType   `json:"type"`
	ManualValues  []ManualValue     `json:"manualValues,omitempty"`
	DynamicValues []DynamicValue    `json:"dynamicValues,omitempty"`
	Ranges        []RangeDefinition `json:"ranges,omitempty"`
}

// FilterConfig describes one filterable product attribute and how its
// selections map to backend query parameters.
type FilterConfig struct {
	ID           string       `json:"id"`
	Label        string       `json:"label,omitempty"`
	Column       string       `json:"column"`
	Operator     Operator     `json:"operator"`
	OperatorMode OperatorMode `json:"operatorMode"`
	ValueConfig  ValueConfig  `json:"valueConfig"`
}

// Validate checks structural fields only. Unknown operators are not an
// error here: the translator drops them at runtime.
func (c FilterConfig) Validate() error {
	if c.ID == "" {
		return ErrMissingFilterID
	}
	if c.Column == "" {
		return fmt.Errorf("%w: filter %q", ErrMissingColumn, c.ID)
	}
	switch c.OperatorMode {
	case ModeColumn, ModePerValue:
	default:
		return fmt.Errorf("%w: filter %q has %q", ErrInvalidOperatorMode, c.ID, c.OperatorMode)
	}
	switch c.ValueConfig.Type {
	case ValuesManual, ValuesDynamic, ValuesMixed, "":
	default:
		return fmt.Errorf("%w: filter %q has %q", ErrInvalidValueType, c.ID, c.ValueConfig.Type)
	}
	return nil
}

// UnknownOperators lists every operator string in the config, including
// per-value ones, that the translator would drop.
func (c FilterConfig) UnknownOperators() []Operator {
	var unknown []Operator
	seen := map[Operator]bool{}
	add := func(op Operator) {
		if op == "" || op.IsKnown() || seen[op] {
			return
		}
		seen[op] = true
		unknown = append(unknown, op)
	}

	if c.OperatorMode == ModeColumn && c.Operator == "" {
		unknown = append(unknown, "")
	}
	add(c.Operator)
	for _, v := range c.ValueConfig.ManualValues {
		add(v.Operator)
	}
	for _, v := range c.ValueConfig.DynamicValues {
		add(v.Operator)
	}
	for _, r := range c.ValueConfig.Ranges {
		add(r.Operator)
	}
	return unknown
}

// FindRange resolves a range label.
func (vc ValueConfig) FindRange(label string) (RangeDefinition, bool) {
	for _, r := range vc.Ranges {
		if r.Label == label {
			return r, true
		}
	}
	return RangeDefinition{}, false
}

// OperatorFor returns the operator attached to a discrete value. Mixed
// configs consult dynamic values before manual ones.
func (vc ValueConfig) OperatorFor(value string) (Operator, bool) {
	switch vc.Type {
	case ValuesDynamic:
		return vc.dynamicOperator(value)
	case ValuesManual:
		return vc.manualOperator(value)
	case ValuesMixed:
		if op, ok := vc.dynamicOperator(value); ok {
			return op, true
		}
		return vc.manualOperator(value)
	}
	return "", false
}

func (vc ValueConfig) dynamicOperator(value string) (Operator, bool) {
	for _, d := range vc.DynamicValues {
		if d.Value == value && d.Operator != "" {
			return d.Operator, true
		}
	}
	return "", false
}

func (vc ValueConfig) manualOperator(value string) (Operator, bool) {
	for _, m := range vc.ManualValues {
		if m.Value == value && m.Operator != "" {
			return m.Operator, true
		}
	}
	return "", false
}

// Float returns a pointer to v, for building range definitions in code.
func Float(v float64) *float64 {
	return &v
}
