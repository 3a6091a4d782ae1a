// internal/catalog/filters/translate_test.go
package filters

import (
	"testing"

	"storefront-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranslator(t *testing.T) *Translator {
	return NewTranslator(logger.NewTestLogger(t))
}

func priceConfig() FilterConfig {
	return FilterConfig{
		ID:           "price",
		Column:       "precio",
		Operator:     OpRange,
		OperatorMode: ModeColumn,
		ValueConfig: ValueConfig{
			Type: ValuesManual,
			Ranges: []RangeDefinition{
				{Label: "Menos de $500.000", Min: Float(0), Max: Float(500000)},
				{Label: "$500.000 a $1.000.000", Min: Float(500000), Max: Float(1000000)},
				{Label: "Más de $3.000.000", Min: Float(3000000)},
			},
		},
	}
}

func TestTranslate_ColumnMultiValued(t *testing.T) {
	tr := newTestTranslator(t)

	ops := []Operator{OpEqual, OpNotEqual, OpIn, OpNotIn, OpContains, OpStartsWith, OpEndsWith}
	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			cfg := FilterConfig{ID: "color", Column: "Color", Operator: op, OperatorMode: ModeColumn}
			res := tr.Translate([]FilterConfig{cfg}, State{"color": {Values: []string{"negro", "azul"}}})

			require.Equal(t, 1, res.Params.Len())
			assert.ElementsMatch(t, []string{"negro", "azul"}, res.Params.Values("color_"+string(op)))
			assert.Equal(t, "negro,azul", res.Query()["color_"+string(op)])
			assert.Empty(t, res.Dropped)
		})
	}
}

func TestTranslate_DuplicateValuesCollapse(t *testing.T) {
	tr := newTestTranslator(t)
	cfg := FilterConfig{ID: "color", Column: "color", Operator: OpIn, OperatorMode: ModeColumn}

	res := tr.Translate([]FilterConfig{cfg}, State{"color": {Values: []string{"negro", "negro", "azul"}}})

	assert.Equal(t, []string{"negro", "azul"}, res.Params.Values("color_in"))
}

func TestTranslate_RangeSliderAcrossTranslations(t *testing.T) {
	tr := newTestTranslator(t)
	cfg := FilterConfig{ID: "price", Column: "precio", Operator: OpRange, OperatorMode: ModeColumn}
	params := NewParams()

	tr.TranslateInto(params, []FilterConfig{cfg}, State{"price": {Min: Float(10), Max: Float(20)}})
	tr.TranslateInto(params, []FilterConfig{cfg}, State{"price": {Min: Float(5)}})

	out := params.Flatten()
	assert.Equal(t, 5.0, out["precio_range_min"])
	assert.Equal(t, 20.0, out["precio_range_max"])
}

func TestTranslate_RangeSliderReplacesBounds(t *testing.T) {
	tr := newTestTranslator(t)
	cfg := FilterConfig{ID: "price", Column: "precio", Operator: OpRange, OperatorMode: ModeColumn}
	params := NewParams()

	// The latest slider position wins on each side it supplies.
	tr.TranslateInto(params, []FilterConfig{cfg}, State{"price": {Min: Float(10), Max: Float(20)}})
	tr.TranslateInto(params, []FilterConfig{cfg}, State{"price": {Min: Float(15), Max: Float(30)}})

	assert.Equal(t, map[string]interface{}{
		"precio_range_min": 15.0,
		"precio_range_max": 30.0,
	}, params.Flatten())
}

func TestTranslate_NumericTightestBound(t *testing.T) {
	tr := newTestTranslator(t)

	tests := []struct {
		name     string
		op       Operator
		values   []string
		expected float64
	}{
		{"gte keeps max", OpGreaterThanOrEqual, []string{"10", "20"}, 20},
		{"gt keeps max", OpGreaterThan, []string{"30", "5"}, 30},
		{"lte keeps min", OpLessThanOrEqual, []string{"10", "20"}, 10},
		{"lt keeps min", OpLessThan, []string{"7.5", "8"}, 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FilterConfig{ID: "ram", Column: "RAM", Operator: tt.op, OperatorMode: ModeColumn}
			res := tr.Translate([]FilterConfig{cfg}, State{"ram": {Values: tt.values}})

			require.Equal(t, 1, res.Params.Len())
			assert.Equal(t, tt.expected, res.Query()["ram_"+string(tt.op)])
		})
	}
}

func TestTranslate_NonNumericDropped(t *testing.T) {
	tr := newTestTranslator(t)
	cfg := FilterConfig{ID: "ram", Column: "ram", Operator: OpGreaterThan, OperatorMode: ModeColumn}

	res := tr.Translate([]FilterConfig{cfg}, State{"ram": {Values: []string{"abc", "NaN", "8"}}})

	assert.Equal(t, map[string]interface{}{"ram_greater_than": 8.0}, res.Query())
	require.Len(t, res.Dropped, 2)
	assert.Equal(t, DropNotNumeric, res.Dropped[0].Reason)
	assert.Equal(t, "NaN", res.Dropped[1].Value)
}

func TestTranslate_EmptyState(t *testing.T) {
	tr := newTestTranslator(t)
	configs := []FilterConfig{
		priceConfig(),
		{ID: "color", Column: "color", Operator: OpIn, OperatorMode: ModeColumn},
	}

	tests := []struct {
		name  string
		state State
	}{
		{"nil state", nil},
		{"empty state", State{}},
		{"empty selections", State{"price": {Ranges: []string{}}, "color": {Values: []string{}}}},
		{"blank values", State{"color": {Values: []string{""}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tr.Translate(configs, tt.state)
			assert.Empty(t, res.Query())
			assert.Empty(t, res.Dropped)
		})
	}
}

func TestTranslate_RangeLabel(t *testing.T) {
	tr := newTestTranslator(t)

	res := tr.Translate([]FilterConfig{priceConfig()}, State{"price": {Ranges: []string{"Menos de $500.000"}}})

	assert.Equal(t, map[string]interface{}{
		"precio_range_min": 0.0,
		"precio_range_max": 500000.0,
	}, res.Query())
}

func TestTranslate_RangeLabelsMerge(t *testing.T) {
	tr := newTestTranslator(t)

	res := tr.Translate([]FilterConfig{priceConfig()}, State{"price": {
		Ranges: []string{"$500.000 a $1.000.000", "Menos de $500.000", "Sin definir"},
	}})

	assert.Equal(t, map[string]interface{}{
		"precio_range_min": 0.0,
		"precio_range_max": 1000000.0,
	}, res.Query())
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, DropMissingRange, res.Dropped[0].Reason)
	assert.Equal(t, "Sin definir", res.Dropped[0].Value)
}

func TestTranslate_RangeLabelsMergeOpenEnded(t *testing.T) {
	tr := newTestTranslator(t)

	for _, order := range [][]string{
		{"Menos de $500.000", "Más de $3.000.000"},
		{"Más de $3.000.000", "Menos de $500.000"},
	} {
		res := tr.Translate([]FilterConfig{priceConfig()}, State{"price": {Ranges: order}})
		assert.Equal(t, map[string]interface{}{"precio_range_min": 0.0}, res.Query(), "%v", order)
		assert.Empty(t, res.Dropped)
	}
}

func TestTranslate_RangeLabelsTakePrecedenceOverSlider(t *testing.T) {
	tr := newTestTranslator(t)

	res := tr.Translate([]FilterConfig{priceConfig()}, State{"price": {
		Ranges: []string{"Más de $3.000.000"},
		Min:    Float(1),
		Max:    Float(2),
	}})

	assert.Equal(t, map[string]interface{}{"precio_range_min": 3000000.0}, res.Query())
}

func TestTranslate_PerValueManual(t *testing.T) {
	tr := newTestTranslator(t)
	cfg := FilterConfig{
		ID:           "brand",
		Column:       "Nombre",
		OperatorMode: ModePerValue,
		ValueConfig: ValueConfig{
			Type:         ValuesManual,
			ManualValues: []ManualValue{{Label: "Samsung", Value: "Samsung", Operator: OpEqual}},
		},
	}

	res := tr.Translate([]FilterConfig{cfg}, State{"brand": {Values: []string{"Samsung"}}})

	assert.Equal(t, map[string]interface{}{"nombre_equal": "Samsung"}, res.Query())
}

func TestTranslate_PerValueLookup(t *testing.T) {
	tr := newTestTranslator(t)
	vc := ValueConfig{
		ManualValues:  []ManualValue{{Value: "Galaxy", Operator: OpStartsWith}, {Value: "Fold", Operator: OpContains}},
		DynamicValues: []DynamicValue{{Value: "Galaxy", Operator: OpEqual}},
	}

	tests := []struct {
		name     string
		vcType   ValueConfigType
		expected map[string]interface{}
	}{
		{
			name:   "dynamic only",
			vcType: ValuesDynamic,
			expected: map[string]interface{}{
				"modelo_equal":  "Galaxy",
				"modelo_not_in": "Fold",
			},
		},
		{
			name:   "manual only",
			vcType: ValuesManual,
			expected: map[string]interface{}{
				"modelo_starts_with": "Galaxy",
				"modelo_contains":    "Fold",
			},
		},
		{
			name:   "mixed prefers dynamic",
			vcType: ValuesMixed,
			expected: map[string]interface{}{
				"modelo_equal":    "Galaxy",
				"modelo_contains": "Fold",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FilterConfig{ID: "model", Column: "Modelo", Operator: OpNotIn, OperatorMode: ModePerValue, ValueConfig: vc}
			cfg.ValueConfig.Type = tt.vcType

			res := tr.Translate([]FilterConfig{cfg}, State{"model": {Values: []string{"Galaxy", "Fold"}}})
			assert.Equal(t, tt.expected, res.Query())
		})
	}
}

func TestTranslate_PerValueRanges(t *testing.T) {
	tr := newTestTranslator(t)
	cfg := FilterConfig{
		ID:           "storage",
		Column:       "almacenamiento",
		OperatorMode: ModePerValue,
		ValueConfig: ValueConfig{
			Type: ValuesManual,
			Ranges: []RangeDefinition{
				{Label: "128GB a 256GB", Min: Float(128), Max: Float(256)},
				{Label: "Desde 512GB", Min: Float(512), Operator: OpGreaterThanOrEqual},
				{Label: "Hasta 64GB", Max: Float(64), Operator: OpLessThanOrEqual},
				{Label: "Roto", Operator: OpGreaterThan},
			},
		},
	}

	res := tr.Translate([]FilterConfig{cfg}, State{"storage": {
		Ranges: []string{"128GB a 256GB", "Desde 512GB", "Hasta 64GB", "Roto"},
	}})

	assert.Equal(t, map[string]interface{}{
		"almacenamiento_range_min":             128.0,
		"almacenamiento_range_max":             256.0,
		"almacenamiento_greater_than_or_equal": 512.0,
		"almacenamiento_less_than_or_equal":    64.0,
	}, res.Query())
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, DropNotApplicable, res.Dropped[0].Reason)
}

func TestTranslate_UnknownOperator(t *testing.T) {
	tr := newTestTranslator(t)
	configs := []FilterConfig{
		{ID: "a", Column: "a", Operator: "between", OperatorMode: ModeColumn},
		{
			ID:           "b",
			Column:       "b",
			OperatorMode: ModePerValue,
			ValueConfig: ValueConfig{
				Type:          ValuesDynamic,
				DynamicValues: []DynamicValue{{Value: "x", Operator: "like"}},
			},
		},
	}

	var res Result
	assert.NotPanics(t, func() {
		res = tr.Translate(configs, State{
			"a": {Values: []string{"1", "2"}},
			"b": {Values: []string{"x"}},
		})
	})

	assert.Empty(t, res.Query())
	require.Len(t, res.Dropped, 3)
	for _, d := range res.Dropped {
		assert.Equal(t, DropUnknownOperator, d.Reason)
	}
}

func TestTranslate_DoesNotMutateInputs(t *testing.T) {
	tr := newTestTranslator(t)
	configs := []FilterConfig{priceConfig()}
	state := State{"price": {Ranges: []string{"Menos de $500.000"}}}
	configsBefore := []FilterConfig{priceConfig()}
	stateBefore := state.Clone()

	tr.Translate(configs, state)

	assert.Equal(t, configsBefore, configs)
	assert.Equal(t, stateBefore, state)
}

func TestTranslate_UnconfiguredStateIgnored(t *testing.T) {
	tr := newTestTranslator(t)

	res := tr.Translate([]FilterConfig{priceConfig()}, State{"unknown": {Values: []string{"x"}}})

	assert.Empty(t, res.Query())
}

func BenchmarkTranslate(b *testing.B) {
	tr := NewTranslator(logger.NewNoOpLogger())
	configs := []FilterConfig{
		priceConfig(),
		{ID: "color", Column: "color", Operator: OpIn, OperatorMode: ModeColumn},
		{ID: "ram", Column: "ram", Operator: OpGreaterThanOrEqual, OperatorMode: ModeColumn},
	}
	state := State{
		"price": {Ranges: []string{"Menos de $500.000", "$500.000 a $1.000.000"}},
		"color": {Values: []string{"negro", "azul", "plata"}},
		"ram":   {Values: []string{"8", "12"}},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Translate(configs, state)
	}
}
