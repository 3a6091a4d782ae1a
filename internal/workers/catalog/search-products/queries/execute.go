// internal/workers/catalog/search-products/queries/execute.go
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"storefront-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

var (
	ErrIndexNotFound = errors.New("index not found")
	ErrSearchFailed  = errors.New("search request failed")
)

type QueryResult struct {
	Products  []models.Product
	TotalHits int64
	MaxScore  float64
	Took      int64
	Ignored   []Ignored
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string                 `json:"_id"`
			Score  *float64               `json:"_score"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func Execute(ctx context.Context, esClient *elasticsearch.Client, q SearchQuery) (*QueryResult, error) {
	req, ignored, err := BuildQuery(q)
	if err != nil {
		return nil, err
	}

	res, err := req.Do(ctx, esClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, decodeError(res.StatusCode, res.Body, q.Index)
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	result := &QueryResult{
		Products:  make([]models.Product, 0, len(r.Hits.Hits)),
		TotalHits: r.Hits.Total.Value,
		Took:      r.Took,
		Ignored:   ignored,
	}
	if r.Hits.MaxScore != nil {
		result.MaxScore = *r.Hits.MaxScore
	}
	for _, hit := range r.Hits.Hits {
		p := ToProduct(hit.ID, hit.Source)
		if hit.Score != nil {
			p.Score = *hit.Score
		}
		result.Products = append(result.Products, p)
	}
	return result, nil
}

func decodeError(status int, body io.Reader, index string) error {
	var e errorResponse
	_ = json.NewDecoder(body).Decode(&e)

	if status == http.StatusNotFound || e.Error.Type == "index_not_found_exception" {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, index)
	}
	return fmt.Errorf("%w: status %d: %s %s", ErrSearchFailed, status, e.Error.Type, e.Error.Reason)
}

// ToProduct maps a listing document onto the product model. The full source
// is kept in Attributes.
func ToProduct(id string, source map[string]interface{}) models.Product {
	p := models.Product{ID: id, Attributes: source}
	if s, ok := source[FieldSKU].(string); ok {
		p.SKU = s
	}
	if s, ok := source[FieldName].(string); ok {
		p.Name = s
	}
	if s, ok := source[FieldBrand].(string); ok {
		p.Brand = s
	}
	if s, ok := source[FieldImage].(string); ok {
		p.ImageURL = s
	}
	if n, ok := toNumber(source[FieldPrice]); ok {
		p.Price = n
	}
	switch v := source[FieldTradeIn].(type) {
	case bool:
		p.TradeInEligible = v
	case string:
		p.TradeInEligible, _ = strconv.ParseBool(strings.TrimSpace(v))
	}
	return p
}
