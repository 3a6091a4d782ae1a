// internal/workers/catalog/translate-dynamic-filters/models.go
package translatedynamicfilters

import "storefront-workers/internal/catalog/filters"

type Input struct {
	CategoryID string                 `json:"categoryId"`
	SectionID  string                 `json:"sectionId,omitempty"`
	Filters    []filters.FilterConfig `json:"filters,omitempty"`
	State      filters.State          `json:"state"`
	SessionID  string                 `json:"sessionId,omitempty"`
}

type Output struct {
	QueryParams  map[string]interface{} `json:"queryParams"`
	ParamCount   int                    `json:"paramCount"`
	Dropped      []filters.Drop         `json:"dropped"`
	RequestToken int64                  `json:"requestToken"`
	ListingKey   string                 `json:"listingKey"`
}
