// internal/workers/checkout/resolve-checkout-step/validation.go
package resolvecheckoutstep

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
			"currentStep": {
				Type:        "string",
				Description: "Step the shopper is on or asked for",
				Enum:        []string{"step3", "step4", "step5", "step6", "step7"},
			},
			"action": {
				Type:        "string",
				Description: "Navigation requested from currentStep",
				Enum:        []string{string(ActionEnter), string(ActionNext), string(ActionBack)},
				Default:     string(ActionEnter),
			},
		},
		Required:             []string{"sessionId", "currentStep"},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"step":                 {Type: "string"},
			"redirected":           {Type: "boolean"},
			"backStep":             {Type: "string"},
			"reason":               {Type: "string"},
			"installmentsRequired": {Type: "boolean"},
			"tradeInRemoved":       {Type: "boolean"},
			"notice":               {Type: "object"},
			"sessionVersion":       {Type: "integer"},
		},
		Required:             []string{"step", "redirected", "backStep", "installmentsRequired", "sessionVersion"},
		AdditionalProperties: false,
	}
}
