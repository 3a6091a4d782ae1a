// internal/models/product.go
package models

// Product is a listing hit as returned by the search worker.
type Product struct {
	ID              string                 `json:"id"`
	SKU             string                 `json:"sku,omitempty"`
	Name            string                 `json:"name"`
	Brand           string                 `json:"brand,omitempty"`
	Price           float64                `json:"price"`
	ImageURL        string                 `json:"imageUrl,omitempty"`
	TradeInEligible bool                   `json:"tradeInEligible"`
	Score           float64                `json:"score,omitempty"`
	Attributes      map[string]interface{} `json:"attributes,omitempty"`
}
