// internal/workers/checkout/revalidate-trade-in/validation.go
package revalidatetradein

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sessionId": {
				Type:        "string",
				Description: "Checkout session id",
				MinLength:   validation.Int(1),
			},
			"cart": {
				Type:        "array",
				Description: "Current cart contents",
				Items: &validation.Property{
					Type: "object",
					Properties: map[string]validation.Property{
						"productId":       {Type: "string", MinLength: validation.Int(1)},
						"quantity":        {Type: "integer", Minimum: validation.Float(1)},
						"price":           {Type: "integer", Minimum: validation.Float(0)},
						"tradeInEligible": {Type: "boolean"},
					},
					Required: []string{"productId", "quantity"},
				},
			},
		},
		Required:             []string{"sessionId"},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"valid":          {Type: "boolean"},
			"removed":        {Type: "boolean"},
			"reason":         {Type: "string"},
			"notice":         {Type: "object"},
			"sessionVersion": {Type: "integer"},
		},
		Required:             []string{"valid", "removed", "sessionVersion"},
		AdditionalProperties: false,
	}
}
