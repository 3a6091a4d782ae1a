// internal/workers/catalog/search-products/models.go
package searchproducts

import "storefront-workers/internal/models"

type Input struct {
	IndexName    string                 `json:"indexName,omitempty"`
	QueryParams  map[string]interface{} `json:"queryParams"`
	Pagination   Pagination             `json:"pagination"`
	SortBy       string                 `json:"sortBy,omitempty"`
	SessionID    string                 `json:"sessionId,omitempty"`
	ListingKey   string                 `json:"listingKey,omitempty"`
	RequestToken int64                  `json:"requestToken,omitempty"`
}

type Pagination struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

type Output struct {
	Products   []models.Product `json:"products"`
	TotalHits  int64            `json:"totalHits"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalPages int              `json:"totalPages"`
	Took       int64            `json:"took"` // milliseconds
	Stale      bool             `json:"stale"`
}
