// internal/workers/checkout/update-checkout-session/validation.go
package updatecheckoutsession

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sessionId": {
				Type:        "string",
				Description: "Checkout session id; empty creates a new session",
			},
			"expectedVersion": {
				Type:        "integer",
				Description: "Version the change was made against",
				Minimum:     validation.Float(1),
			},
			"changes": {
				Type: "object",
				Properties: map[string]validation.Property{
					"cart": {
						Type: "array",
						Items: &validation.Property{
							Type: "object",
							Properties: map[string]validation.Property{
								"productId": {Type: "string", MinLength: validation.Int(1)},
								"quantity":  {Type: "integer", Minimum: validation.Float(1)},
							},
							Required: []string{"productId", "quantity"},
						},
					},
					"paymentMethod": {
						Type: "string",
						Enum: []string{"", "card", "pse", "cash_on_delivery", "bank_transfer"},
					},
					"card": {
						Type: "object",
						Properties: map[string]validation.Property{
							"id":   {Type: "string", MinLength: validation.Int(1)},
							"type": {Type: "string", Enum: []string{"credit", "debit"}},
						},
						Required: []string{"id", "type"},
					},
					"bank":            {Type: "string"},
					"installments":    {Type: "integer"},
					"billing":         {Type: "object"},
					"shippingAddress": {Type: "object"},
					"deliveryMethod":  {Type: "string"},
					"tradeIn":         {Type: "object"},
					"clearTradeIn":    {Type: "boolean"},
					"dismissNotice":   {Type: "string"},
				},
			},
			"legacy": {
				Type:                 "object",
				Description:          "Browser-stored keys, each holding a JSON string",
				AdditionalProperties: &validation.Property{Type: "string"},
			},
		},
		Required:             []string{"changes"},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sessionId":      {Type: "string"},
			"version":        {Type: "integer"},
			"nextStep":       {Type: "string"},
			"created":        {Type: "boolean"},
			"tradeInRemoved": {Type: "boolean"},
			"warnings":       {Type: "array"},
		},
		Required:             []string{"sessionId", "version", "nextStep"},
		AdditionalProperties: false,
	}
}
