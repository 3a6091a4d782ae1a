// internal/workers/tradein/calculate-trade-in-value/validation.go
package calculatetradeinvalue

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sessionId": {
				Type:        "string",
				Description: "Checkout session to apply the quote to",
			},
			"deviceKey": {
				Type:        "string",
				Description: "brandCode/modelCode",
				Pattern:     validation.String(`^[^/]+/[^/]+$`),
			},
			"brandId":    {Type: "string"},
			"capacityId": {Type: "string"},
			"grade": {
				Type: "string",
				Enum: []string{"A", "B", "C"},
			},
			"deviceName": {Type: "string", MaxLength: validation.Int(120)},
			"imei":       {Type: "string", Pattern: validation.String(`^[0-9]{15}$`)},
		},
		Required:             []string{"grade"},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"value":            {Type: "integer", Minimum: validation.Float(0)},
			"currency":         {Type: "string"},
			"formattedValue":   {Type: "string"},
			"deviceKey":        {Type: "string"},
			"grade":            {Type: "string"},
			"appliedToSession": {Type: "boolean"},
			"sessionVersion":   {Type: "integer"},
		},
		Required:             []string{"value", "currency", "formattedValue", "deviceKey", "grade", "appliedToSession"},
		AdditionalProperties: false,
	}
}
