// internal/catalog/filters/translate.go
package filters

import (
	"errors"

	"storefront-workers/internal/common/logger"
)

// Drop reasons reported for selections that produced no parameter.
const (
	DropUnknownOperator = "UNKNOWN_OPERATOR"
	DropMissingRange    = "MISSING_RANGE"
	DropNotNumeric      = "NOT_NUMERIC"
	DropNotApplicable   = "NOT_APPLICABLE"
)

// Drop records one selected value or range label that was ignored.
type Drop struct {
	FilterID string   `json:"filterId"`
	Column   string   `json:"column"`
	Operator Operator `json:"operator,omitempty"`
	Value    string   `json:"value,omitempty"`
	Reason   string   `json:"reason"`
}

type Result struct {
	Params  *Params
	Dropped []Drop
}

// Query returns the flattened backend parameter set.
func (r Result) Query() map[string]interface{} {
	return r.Params.Flatten()
}

// Translator converts filter selections into backend query parameters.
// It performs no I/O and never mutates configs or state.
type Translator struct {
	logger logger.Logger
}

func NewTranslator(log logger.Logger) *Translator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Translator{logger: log}
}

func (t *Translator) Translate(configs []FilterConfig, state State) Result {
	params := NewParams()
	dropped := t.TranslateInto(params, configs, state)
	return Result{Params: params, Dropped: dropped}
}

// TranslateInto writes into an existing parameter set so bounds can be
// tightened across several translations.
func (t *Translator) TranslateInto(params *Params, configs []FilterConfig, state State) []Drop {
	var dropped []Drop
	for _, cfg := range configs {
		sel, ok := state[cfg.ID]
		if !ok || sel.IsEmpty() {
			continue
		}
		if cfg.OperatorMode == ModePerValue {
			dropped = append(dropped, t.perValue(params, cfg, sel)...)
		} else {
			dropped = append(dropped, t.column(params, cfg, sel)...)
		}
	}
	return dropped
}

func (t *Translator) column(params *Params, cfg FilterConfig, sel Selection) []Drop {
	var dropped []Drop
	drop := func(value, reason string) {
		dropped = append(dropped, Drop{FilterID: cfg.ID, Column: cfg.Column, Operator: cfg.Operator, Value: value, Reason: reason})
	}

	if !cfg.Operator.IsKnown() {
		t.warnUnknown(cfg, cfg.Operator)
		for _, v := range nonBlank(sel.Values) {
			drop(v, DropUnknownOperator)
		}
		for _, r := range nonBlank(sel.Ranges) {
			drop(r, DropUnknownOperator)
		}
		if sel.HasBounds() {
			drop("", DropUnknownOperator)
		}
		return dropped
	}

	if cfg.Operator == OpRange {
		labels := nonBlank(sel.Ranges)
		if len(labels) > 0 {
			for _, label := range labels {
				def, ok := cfg.ValueConfig.FindRange(label)
				if !ok {
					t.logger.Debug("range label not configured", map[string]interface{}{"filterId": cfg.ID, "label": label})
					drop(label, DropMissingRange)
					continue
				}
				params.MergeRange(cfg.Column, def.Min, def.Max)
			}
		} else if sel.HasBounds() {
			params.SetRangeBounds(cfg.Column, sel.Min, sel.Max)
		}
		for _, v := range nonBlank(sel.Values) {
			drop(v, DropNotApplicable)
		}
		return dropped
	}

	for _, v := range nonBlank(sel.Values) {
		if err := params.AddValue(cfg.Column, cfg.Operator, v); err != nil {
			drop(v, reasonFor(err))
		}
	}
	for _, r := range nonBlank(sel.Ranges) {
		drop(r, DropNotApplicable)
	}
	if sel.HasBounds() {
		drop("", DropNotApplicable)
	}
	return dropped
}

func (t *Translator) perValue(params *Params, cfg FilterConfig, sel Selection) []Drop {
	var dropped []Drop
	drop := func(op Operator, value, reason string) {
		dropped = append(dropped, Drop{FilterID: cfg.ID, Column: cfg.Column, Operator: op, Value: value, Reason: reason})
	}

	for _, v := range nonBlank(sel.Values) {
		op, ok := cfg.ValueConfig.OperatorFor(v)
		if !ok {
			op = cfg.Operator
		}
		if !op.IsKnown() {
			t.warnUnknown(cfg, op)
			drop(op, v, DropUnknownOperator)
			continue
		}
		if err := params.AddValue(cfg.Column, op, v); err != nil {
			drop(op, v, reasonFor(err))
		}
	}

	for _, label := range nonBlank(sel.Ranges) {
		def, ok := cfg.ValueConfig.FindRange(label)
		if !ok {
			drop("", label, DropMissingRange)
			continue
		}
		op := def.Operator
		if op == "" {
			op = OpRange
		}
		switch {
		case !op.IsKnown():
			t.warnUnknown(cfg, op)
			drop(op, label, DropUnknownOperator)
		case op == OpRange:
			params.MergeRange(cfg.Column, def.Min, def.Max)
		case op.IsLowerBound() && def.Min != nil:
			params.AddBound(cfg.Column, op, *def.Min)
		case op.IsUpperBound() && def.Max != nil:
			params.AddBound(cfg.Column, op, *def.Max)
		default:
			drop(op, label, DropNotApplicable)
		}
	}

	if sel.HasBounds() {
		params.SetRangeBounds(cfg.Column, sel.Min, sel.Max)
	}
	return dropped
}

func (t *Translator) warnUnknown(cfg FilterConfig, op Operator) {
	t.logger.Warn("unknown filter operator, selection dropped", map[string]interface{}{
		"filterId": cfg.ID,
		"column":   cfg.Column,
		"operator": string(op),
	})
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrNotNumeric):
		return DropNotNumeric
	case errors.Is(err, ErrUnknownOperator):
		return DropUnknownOperator
	}
	return DropNotApplicable
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
