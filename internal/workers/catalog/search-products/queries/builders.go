// internal/workers/catalog/search-products/queries/builders.go
package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"storefront-workers/internal/catalog/filters"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrMissingIndex = errors.New("index name is required")
	ErrUnknownSort  = errors.New("unknown sort option")
)

// Index field names of the listing document.
const (
	FieldSKU     = "sku"
	FieldName    = "nombre"
	FieldBrand   = "marca"
	FieldPrice   = "precio"
	FieldImage   = "imagen"
	FieldTradeIn = "retoma"
)

const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

var sortClauses = map[string][]map[string]interface{}{
	SortRelevance: nil,
	SortPriceAsc:  {{FieldPrice: map[string]interface{}{"order": "asc"}}},
	SortPriceDesc: {{FieldPrice: map[string]interface{}{"order": "desc"}}},
	SortName:      {{FieldName + ".keyword": map[string]interface{}{"order": "asc"}}},
}

// SearchQuery is one listing page request.
type SearchQuery struct {
	Index  string
	Params map[string]interface{}
	From   int
	Size   int
	SortBy string
}

// Ignored is a query parameter that produced no clause.
type Ignored struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// BuildQuery renders the search request. Parameters it cannot interpret are
// returned so the caller can log them.
func BuildQuery(q SearchQuery) (*esapi.SearchRequest, []Ignored, error) {
	if q.Index == "" {
		return nil, nil, ErrMissingIndex
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = SortRelevance
	}
	sortClause, ok := sortClauses[sortBy]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSort, q.SortBy)
	}

	boolQuery, ignored := BuildBoolQuery(q.Params)
	body := map[string]interface{}{
		"query":            map[string]interface{}{"bool": boolQuery},
		"track_total_hits": true,
	}
	if sortClause != nil {
		body["sort"] = sortClause
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("encode search body: %w", err)
	}

	from, size := q.From, q.Size
	return &esapi.SearchRequest{
		Index: []string{q.Index},
		Body:  bytes.NewReader(data),
		From:  &from,
		Size:  &size,
	}, ignored, nil
}

// BuildBoolQuery converts translated filter parameters into bool clauses.
// Comma-joined list values become separate terms. Parameters are visited in
// name order so the body is stable.
func BuildBoolQuery(params map[string]interface{}) (map[string]interface{}, []Ignored) {
	var (
		filterClauses  []interface{}
		mustNotClauses []interface{}
		ignored        []Ignored
	)
	ranges := map[string]map[string]float64{}
	addBound := func(field, key string, n float64) {
		bounds := ranges[field]
		if bounds == nil {
			bounds = map[string]float64{}
			ranges[field] = bounds
		}
		if cur, ok := bounds[key]; ok && !tighter(key, n, cur) {
			return
		}
		bounds[key] = n
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field, suffix, ok := filters.SplitParamName(name)
		if !ok {
			ignored = append(ignored, Ignored{Name: name, Reason: "unrecognised suffix"})
			continue
		}
		raw := params[name]

		if key, numeric := boundKey(suffix); numeric {
			n, ok := toNumber(raw)
			if !ok {
				ignored = append(ignored, Ignored{Name: name, Reason: "value is not numeric"})
				continue
			}
			addBound(field, key, n)
			continue
		}

		values := toValues(raw)
		if len(values) == 0 {
			ignored = append(ignored, Ignored{Name: name, Reason: "no values"})
			continue
		}

		switch filters.Operator(suffix) {
		case filters.OpEqual, filters.OpIn:
			filterClauses = append(filterClauses, terms(field, values))
		case filters.OpNotEqual, filters.OpNotIn:
			mustNotClauses = append(mustNotClauses, terms(field, values))
		case filters.OpContains:
			filterClauses = append(filterClauses, anyOf(values, func(v string) interface{} {
				return wildcard(field, "*"+v+"*")
			}))
		case filters.OpEndsWith:
			filterClauses = append(filterClauses, anyOf(values, func(v string) interface{} {
				return wildcard(field, "*"+v)
			}))
		case filters.OpStartsWith:
			filterClauses = append(filterClauses, anyOf(values, func(v string) interface{} {
				return map[string]interface{}{"prefix": map[string]interface{}{
					field: map[string]interface{}{"value": v, "case_insensitive": true},
				}}
			}))
		default:
			ignored = append(ignored, Ignored{Name: name, Reason: "operator has no query mapping"})
		}
	}

	fields := make([]string, 0, len(ranges))
	for field := range ranges {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{field: rangeClause(ranges[field])},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(filterClauses) == 0 && len(mustNotClauses) == 0 {
		boolQuery["must"] = []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}}
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}
	if len(mustNotClauses) > 0 {
		boolQuery["must_not"] = mustNotClauses
	}
	return boolQuery, ignored
}

// tighter reports whether n narrows the range more than cur for key.
func tighter(key string, n, cur float64) bool {
	if key == "gt" || key == "gte" {
		return n > cur
	}
	return n < cur
}

// rangeClause keeps one bound per side: of gt and gte the stricter wins, and
// likewise for lt and lte. An exclusive bound beats an inclusive one at the
// same value.
func rangeClause(bounds map[string]float64) map[string]interface{} {
	out := make(map[string]interface{}, 2)
	gt, hasGT := bounds["gt"]
	gte, hasGTE := bounds["gte"]
	switch {
	case hasGT && (!hasGTE || gt >= gte):
		out["gt"] = gt
	case hasGTE:
		out["gte"] = gte
	}
	lt, hasLT := bounds["lt"]
	lte, hasLTE := bounds["lte"]
	switch {
	case hasLT && (!hasLTE || lt <= lte):
		out["lt"] = lt
	case hasLTE:
		out["lte"] = lte
	}
	return out
}

func boundKey(suffix string) (string, bool) {
	switch suffix {
	case filters.SuffixRangeMin:
		return "gte", true
	case filters.SuffixRangeMax:
		return "lte", true
	case string(filters.OpGreaterThan):
		return "gt", true
	case string(filters.OpGreaterThanOrEqual):
		return "gte", true
	case string(filters.OpLessThan):
		return "lt", true
	case string(filters.OpLessThanOrEqual):
		return "lte", true
	}
	return "", false
}

func terms(field string, values []string) map[string]interface{} {
	return map[string]interface{}{"terms": map[string]interface{}{field: values}}
}

func wildcard(field, pattern string) map[string]interface{} {
	return map[string]interface{}{"wildcard": map[string]interface{}{
		field: map[string]interface{}{"value": pattern, "case_insensitive": true},
	}}
}

// anyOf ORs one clause per value; a single value needs no wrapper.
func anyOf(values []string, clause func(string) interface{}) interface{} {
	if len(values) == 1 {
		return clause(values[0])
	}
	should := make([]interface{}, 0, len(values))
	for _, v := range values {
		should = append(should, clause(v))
	}
	return map[string]interface{}{"bool": map[string]interface{}{
		"should":               should,
		"minimum_should_match": 1,
	}}
}

func toValues(raw interface{}) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, strings.Split(s, ",")...)
			} else if item != nil {
				parts = append(parts, fmt.Sprint(item))
			}
		}
	case []string:
		for _, s := range v {
			parts = append(parts, strings.Split(s, ",")...)
		}
	case float64, bool:
		parts = []string{fmt.Sprint(v)}
	}

	out := make([]string, 0, len(parts))
	seen := map[string]bool{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func toNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}
