// internal/models/cart.go
package models

// CartItem is one line of the shopping cart. Price is in minor units (COP has
// no decimals in practice, so this is pesos).
type CartItem struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	// TradeInEligible is nil when the catalog did not report eligibility,
	// which counts as not eligible.
	TradeInEligible *bool `json:"tradeInEligible,omitempty"`
}

func (c CartItem) IsTradeInEligible() bool {
	return c.TradeInEligible != nil && *c.TradeInEligible
}

// TradeIn is a device quote applied to a checkout session.
type TradeIn struct {
	BrandCode  string `json:"brandCode"`
	ModelCode  string `json:"modelCode"`
	DeviceName string `json:"deviceName,omitempty"`
	Grade      string `json:"grade"`
	IMEI       string `json:"imei,omitempty"`
	Value      int64  `json:"value"`
	Currency   string `json:"currency"`
	AppliedAt  string `json:"appliedAt"`
}

func Bool(v bool) *bool { return &v }
