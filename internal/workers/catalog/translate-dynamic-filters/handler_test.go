// internal/workers/catalog/translate-dynamic-filters/handler_test.go
package translatedynamicfilters

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"storefront-workers/internal/catalog/filters"
	"storefront-workers/internal/catalog/requestguard"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/pkg/registry"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog map[string][]filters.FilterConfig

func (c stubCatalog) Lookup(categoryID, sectionID string) ([]filters.FilterConfig, bool) {
	cfgs, ok := c[requestguard.ListingKey(categoryID, sectionID)]
	return cfgs, ok
}

type failingIssuer struct{}

func (failingIssuer) Issue(context.Context, string) (int64, error) {
	return 0, stderrors.New("connection refused")
}

func phoneFilters() []filters.FilterConfig {
	return []filters.FilterConfig{
		{
			ID:           "marca",
			Column:       "marca",
			Operator:     filters.OpIn,
			OperatorMode: filters.ModeColumn,
			ValueConfig:  filters.ValueConfig{Type: filters.ValuesDynamic},
		},
		{
			ID:           "precio",
			Column:       "precio",
			Operator:     filters.OpRange,
			OperatorMode: filters.ModeColumn,
			ValueConfig: filters.ValueConfig{
				Type:   filters.ValuesManual,
				Ranges: []filters.RangeDefinition{{Label: "hasta-500k", Max: filters.Float(500000)}},
			},
		},
		{
			ID:           "color",
			Column:       "color",
			Operator:     filters.Operator("sounds_like"),
			OperatorMode: filters.ModeColumn,
			ValueConfig:  filters.ValueConfig{Type: filters.ValuesDynamic},
		},
	}
}

func createTestHandler(t *testing.T, guard TokenIssuer) *Handler {
	catalog := stubCatalog{"celulares/smartphones": phoneFilters()}
	return NewHandler(LoadConfig(), catalog, guard, logger.NewTestLogger(t))
}

func createMockJob(t *testing.T, variables map[string]interface{}) entities.Job {
	data, err := json.Marshal(variables)
	require.NoError(t, err)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                1,
		Type:               TaskType,
		ProcessInstanceKey: 10,
		Retries:            3,
		Variables:          string(data),
	}}
}

func TestHandler_Execute_FromCatalog(t *testing.T) {
	h := createTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{
		CategoryID: "celulares",
		SectionID:  "smartphones",
		State: filters.State{
			"marca":  {Values: []string{"Samsung", "Apple", "Samsung"}},
			"precio": {Ranges: []string{"hasta-500k"}},
			"color":  {Values: []string{"negro"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"marca_in":         "Samsung,Apple",
		"precio_range_max": float64(500000),
	}, out.QueryParams)
	assert.Equal(t, 2, out.ParamCount)
	require.Len(t, out.Dropped, 1)
	assert.Equal(t, "color", out.Dropped[0].FilterID)
	assert.Equal(t, filters.DropUnknownOperator, out.Dropped[0].Reason)
	assert.Equal(t, "celulares/smartphones", out.ListingKey)
	assert.Zero(t, out.RequestToken)
}

func TestHandler_Execute_InlineFiltersOverrideCatalog(t *testing.T) {
	h := createTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{
		CategoryID: "celulares",
		SectionID:  "smartphones",
		Filters: []filters.FilterConfig{{
			ID:           "nombre",
			Column:       "Nombre",
			Operator:     filters.OpContains,
			OperatorMode: filters.ModeColumn,
		}},
		State: filters.State{
			"nombre": {Values: []string{"galaxy"}},
			"marca":  {Values: []string{"Samsung"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"nombre_contains": "galaxy"}, out.QueryParams)
	assert.Empty(t, out.Dropped)
	assert.NotNil(t, out.Dropped)
}

func TestHandler_Execute_EmptyStateYieldsNoParams(t *testing.T) {
	h := createTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{
		CategoryID: "celulares",
		SectionID:  "smartphones",
		State:      filters.State{"marca": {Values: []string{""}}},
	})
	require.NoError(t, err)

	assert.Empty(t, out.QueryParams)
	assert.Zero(t, out.ParamCount)
}

func TestHandler_Execute_Errors(t *testing.T) {
	h := createTestHandler(t, nil)

	tests := []struct {
		name  string
		input *Input
		code  errors.ErrorCode
	}{
		{
			name:  "unknown category",
			input: &Input{CategoryID: "televisores", State: filters.State{}},
			code:  errors.ErrCodeCatalogNotFound,
		},
		{
			name:  "no category and no filters",
			input: &Input{State: filters.State{}},
			code:  errors.ErrCodeInvalidFilterFormat,
		},
		{
			name: "inline filter without column",
			input: &Input{
				Filters: []filters.FilterConfig{{ID: "x", OperatorMode: filters.ModeColumn}},
				State:   filters.State{},
			},
			code: errors.ErrCodeInvalidFilterFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestHandler_Execute_IssuesRequestTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	guard := requestguard.New(rdb, "", time.Minute)
	h := createTestHandler(t, guard)

	input := &Input{
		CategoryID: "celulares",
		SectionID:  "smartphones",
		SessionID:  "sess-1",
		State:      filters.State{"marca": {Values: []string{"Apple"}}},
	}

	first, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.RequestToken)
	assert.Equal(t, int64(2), second.RequestToken)

	current, err := guard.IsCurrent(context.Background(), requestguard.Scope("sess-1", second.ListingKey), first.RequestToken)
	require.NoError(t, err)
	assert.False(t, current)
}

func TestHandler_Execute_GuardFailureIsRetryable(t *testing.T) {
	h := createTestHandler(t, failingIssuer{})

	_, err := h.Execute(context.Background(), &Input{
		CategoryID: "celulares",
		SectionID:  "smartphones",
		SessionID:  "sess-1",
		State:      filters.State{},
	})

	require.Error(t, err)
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeRequestGuardFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, nil)

	input, err := h.parseInput(createMockJob(t, map[string]interface{}{
		"categoryId": "celulares",
		"state": map[string]interface{}{
			"precio": map[string]interface{}{"min": 100, "max": 900},
		},
		"customerEmail": "ana@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, "celulares", input.CategoryID)
	require.NotNil(t, input.State["precio"].Min)
	assert.Equal(t, 100.0, *input.State["precio"].Min)

	_, err = h.parseInput(createMockJob(t, map[string]interface{}{
		"categoryId": "celulares",
		"state":      map[string]interface{}{"marca": map[string]interface{}{"values": []int{1, 2}}},
	}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFilterFormat))

	_, err = h.parseInput(createMockJob(t, map[string]interface{}{"categoryId": "celulares"}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFilterFormat))
}

func TestHandler_Execute_ShippedRegistry(t *testing.T) {
	reg, err := registry.LoadRegistry("../../../../configs/catalog-registry.json")
	require.NoError(t, err)

	h := NewHandler(LoadConfig(), reg, nil, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{
		CategoryID: "celulares",
		SectionID:  "smartphones",
		State: filters.State{
			"almacenamiento": {Values: []string{"64", "128"}},
			"estado":         {Values: []string{"nuevo", "reacondicionado"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"almacenamiento_gb_greater_than_or_equal": float64(128),
		"condicion_equal":                         "nuevo",
		"condicion_not_equal":                     "reacondicionado",
	}, out.QueryParams)
}
