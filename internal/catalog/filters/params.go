// internal/catalog/filters/params.go
package filters

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownOperator = errors.New("unknown operator")
	ErrNotNumeric      = errors.New("value is not numeric")
	ErrNotApplicable   = errors.New("operator not applicable")
)

const (
	rangeMinSuffix = "_range_min"
	rangeMaxSuffix = "_range_max"
)

// ParamName derives the backend parameter for a value operator.
func ParamName(column string, op Operator) string {
	return strings.ToLower(column) + "_" + string(op)
}

func RangeMinName(column string) string {
	return strings.ToLower(column) + rangeMinSuffix
}

func RangeMaxName(column string) string {
	return strings.ToLower(column) + rangeMaxSuffix
}

// Params accumulates query parameters across filters. List parameters keep
// first-seen order and never hold duplicates; numeric parameters hold one
// bound each.
type Params struct {
	lists   map[string][]string
	members map[string]map[string]bool
	numbers map[string]float64

	// range bounds opened by a merged interval without that side
	unbounded map[string]bool
}

func NewParams() *Params {
	return &Params{
		lists:     make(map[string][]string),
		members:   make(map[string]map[string]bool),
		numbers:   make(map[string]float64),
		unbounded: make(map[string]bool),
	}
}

// AddValue registers one selected value under column and op.
func (p *Params) AddValue(column string, op Operator, value string) error {
	switch {
	case op.IsMultiValued():
		p.appendValue(ParamName(column, op), value)
		return nil
	case op.IsNumeric():
		n, err := parseNumber(value)
		if err != nil {
			return err
		}
		p.AddBound(column, op, n)
		return nil
	case op == OpRange:
		return fmt.Errorf("%w: %s takes ranges, not values", ErrNotApplicable, op)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperator, op)
}

// AddBound reduces numeric comparison inputs to the tightest bound:
// lower-bound operators keep the largest value, upper-bound ones the smallest.
func (p *Params) AddBound(column string, op Operator, n float64) {
	name := ParamName(column, op)
	cur, ok := p.numbers[name]
	switch {
	case !ok:
		p.numbers[name] = n
	case op.IsLowerBound() && n > cur:
		p.numbers[name] = n
	case op.IsUpperBound() && n < cur:
		p.numbers[name] = n
	}
}

// MergeRange unions a selected interval into the column's range: the
// smallest min and the largest max win. An interval open on one side leaves
// the union open on that side, so the bound is removed and later merges
// cannot bring it back.
func (p *Params) MergeRange(column string, min, max *float64) {
	p.mergeBound(RangeMinName(column), min, func(n, cur float64) bool { return n < cur })
	p.mergeBound(RangeMaxName(column), max, func(n, cur float64) bool { return n > cur })
}

func (p *Params) mergeBound(name string, n *float64, wider func(n, cur float64) bool) {
	if n == nil {
		p.unbounded[name] = true
		delete(p.numbers, name)
		return
	}
	if p.unbounded[name] {
		return
	}
	if cur, ok := p.numbers[name]; !ok || wider(*n, cur) {
		p.numbers[name] = *n
	}
}

// SetRangeBounds writes slider bounds. A supplied bound replaces the previous
// one, looser or tighter; an absent bound leaves what is already there.
func (p *Params) SetRangeBounds(column string, min, max *float64) {
	if min != nil {
		name := RangeMinName(column)
		p.numbers[name] = *min
		delete(p.unbounded, name)
	}
	if max != nil {
		name := RangeMaxName(column)
		p.numbers[name] = *max
		delete(p.unbounded, name)
	}
}

func (p *Params) appendValue(name, value string) {
	set, ok := p.members[name]
	if !ok {
		set = make(map[string]bool)
		p.members[name] = set
	}
	if set[value] {
		return
	}
	set[value] = true
	p.lists[name] = append(p.lists[name], value)
}

// Values returns a copy of a list parameter.
func (p *Params) Values(name string) []string {
	return append([]string(nil), p.lists[name]...)
}

func (p *Params) Number(name string) (float64, bool) {
	n, ok := p.numbers[name]
	return n, ok
}

func (p *Params) Len() int {
	return len(p.lists) + len(p.numbers)
}

// Names returns every parameter name in sorted order.
func (p *Params) Names() []string {
	names := make([]string, 0, p.Len())
	for n := range p.lists {
		names = append(names, n)
	}
	for n := range p.numbers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Flatten renders the backend parameter set: lists are comma-joined and
// numbers stay float64. Expanding comma lists into repeated keys is left to
// the transport.
func (p *Params) Flatten() map[string]interface{} {
	out := make(map[string]interface{}, p.Len())
	for name, values := range p.lists {
		out[name] = strings.Join(values, ",")
	}
	for name, n := range p.numbers {
		out[name] = n
	}
	return out
}

func parseNumber(value string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, value)
	}
	return n, nil
}

// Range bound suffixes as returned by SplitParamName.
const (
	SuffixRangeMin = "range_min"
	SuffixRangeMax = "range_max"
)

// SplitParamName reverses ParamName, RangeMinName and RangeMaxName. The
// returned suffix is an operator name or one of the range bound suffixes.
func SplitParamName(name string) (column, suffix string, ok bool) {
	for _, s := range []string{rangeMinSuffix, rangeMaxSuffix} {
		if col, found := strings.CutSuffix(name, s); found && col != "" {
			return col, s[1:], true
		}
	}
	for _, op := range Operators() {
		if col, found := strings.CutSuffix(name, "_"+string(op)); found && col != "" {
			return col, string(op), true
		}
	}
	return "", "", false
}
