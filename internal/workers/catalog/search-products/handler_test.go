// internal/workers/catalog/search-products/handler_test.go
package searchproducts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"storefront-workers/internal/catalog/requestguard"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponse = `{
	"took": 7,
	"hits": {
		"total": {"value": 45},
		"max_score": 1.0,
		"hits": [
			{"_id": "p1", "_score": 1.0, "_source": {"sku": "SM-A55", "nombre": "Galaxy A55", "marca": "Samsung", "precio": 1899900, "retoma": true}},
			{"_id": "p2", "_score": 0.8, "_source": {"sku": "MTP-15", "nombre": "iPhone 15", "marca": "Apple", "precio": 4299900}}
		]
	}
}`

// newESClient starts a fake cluster. Every response carries the product
// header the client insists on.
func newESClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  []string{srv.URL},
		MaxRetries: 1,
	})
	require.NoError(t, err)
	return client
}

func newGuard(t *testing.T) *requestguard.Guard {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return requestguard.New(rdb, "", time.Minute)
}

func createTestHandler(t *testing.T, client *elasticsearch.Client, guard TokenChecker) *Handler {
	return NewHandler(LoadConfig(), client, guard, logger.NewTestLogger(t))
}

func TestHandler_Execute_Success(t *testing.T) {
	var captured map[string]interface{}
	var path string
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		assert.Equal(t, "20", r.URL.Query().Get("from"))
		assert.Equal(t, "20", r.URL.Query().Get("size"))
		_, _ = io.WriteString(w, searchResponse)
	})
	h := createTestHandler(t, client, nil)

	out, err := h.Execute(context.Background(), &Input{
		QueryParams: map[string]interface{}{"marca_in": "Samsung,Apple", "precio_range_max": float64(5000000)},
		Pagination:  Pagination{Page: 2},
		SortBy:      "price_asc",
	})
	require.NoError(t, err)

	assert.Equal(t, "/products/_search", path)
	assert.Len(t, out.Products, 2)
	assert.Equal(t, "Galaxy A55", out.Products[0].Name)
	assert.True(t, out.Products[0].TradeInEligible)
	assert.Equal(t, 4299900.0, out.Products[1].Price)
	assert.Equal(t, int64(45), out.TotalHits)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 20, out.Size)
	assert.Equal(t, 3, out.TotalPages)
	assert.Equal(t, int64(7), out.Took)
	assert.False(t, out.Stale)

	filter := captured["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	assert.Len(t, filter, 2)
	assert.NotNil(t, captured["sort"])
}

func TestHandler_NormalizePagination(t *testing.T) {
	h := createTestHandler(t, nil, nil)

	tests := []struct {
		in                 Pagination
		wantPage, wantSize int
	}{
		{Pagination{}, 1, 20},
		{Pagination{Page: -3, Size: 0}, 1, 20},
		{Pagination{Page: 4, Size: 50}, 4, 50},
		{Pagination{Page: 1, Size: 500}, 1, 100},
	}
	for _, tt := range tests {
		page, size := h.normalizePagination(tt.in)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantSize, size)
	}
}

func TestHandler_Execute_StaleBeforeQuery(t *testing.T) {
	var calls int32
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, searchResponse)
	})
	guard := newGuard(t)
	scope := requestguard.Scope("sess-1", "celulares/smartphones")
	ctx := context.Background()

	first, err := guard.Issue(ctx, scope)
	require.NoError(t, err)
	_, err = guard.Issue(ctx, scope)
	require.NoError(t, err)

	h := createTestHandler(t, client, guard)
	out, err := h.Execute(ctx, &Input{
		SessionID:    "sess-1",
		ListingKey:   "celulares/smartphones",
		RequestToken: first,
	})
	require.NoError(t, err)

	assert.True(t, out.Stale)
	assert.Empty(t, out.Products)
	assert.NotNil(t, out.Products)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestHandler_Execute_StaleAfterQuery(t *testing.T) {
	guard := newGuard(t)
	scope := requestguard.Scope("sess-1", "celulares")
	ctx := context.Background()

	token, err := guard.Issue(ctx, scope)
	require.NoError(t, err)

	// A newer request is issued while this one is being served.
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = guard.Issue(r.Context(), scope)
		_, _ = io.WriteString(w, searchResponse)
	})

	h := createTestHandler(t, client, guard)
	out, err := h.Execute(ctx, &Input{SessionID: "sess-1", ListingKey: "celulares", RequestToken: token})
	require.NoError(t, err)

	assert.True(t, out.Stale)
	assert.Empty(t, out.Products)
}

func TestHandler_Execute_CurrentTokenServed(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, searchResponse)
	})
	guard := newGuard(t)
	scope := requestguard.Scope("sess-1", "celulares")

	token, err := guard.Issue(context.Background(), scope)
	require.NoError(t, err)

	h := createTestHandler(t, client, guard)
	out, err := h.Execute(context.Background(), &Input{SessionID: "sess-1", ListingKey: "celulares", RequestToken: token})
	require.NoError(t, err)

	assert.False(t, out.Stale)
	assert.Len(t, out.Products, 2)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		input     *Input
		code      errors.ErrorCode
		retryable bool
	}{
		{
			name:   "missing index",
			status: http.StatusNotFound,
			body:   `{"error": {"type": "index_not_found_exception", "reason": "no such index [ghost]"}, "status": 404}`,
			input:  &Input{IndexName: "ghost"},
			code:   errors.ErrCodeIndexNotFound,
		},
		{
			name:      "cluster error",
			status:    http.StatusInternalServerError,
			body:      `{"error": {"type": "search_phase_execution_exception", "reason": "all shards failed"}, "status": 500}`,
			input:     &Input{},
			code:      errors.ErrCodeSearchQueryFailed,
			retryable: true,
		},
		{
			name:   "unknown sort",
			status: http.StatusOK,
			body:   searchResponse,
			input:  &Input{SortBy: "popularity"},
			code:   errors.ErrCodeInputValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			h := createTestHandler(t, client, nil)

			_, err := h.Execute(context.Background(), tt.input)

			stdErr, ok := errors.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_Timeout(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	h := createTestHandler(t, client, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.Execute(ctx, &Input{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchTimeout), "got %v", err)
}
