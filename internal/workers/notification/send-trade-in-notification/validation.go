// internal/workers/notification/send-trade-in-notification/validation.go
package sendtradeinnotification

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"notificationType": {
				Type: "string",
				Enum: []string{"trade_in_quote", "trade_in_removed"},
			},
			"email":        {Type: "string", MaxLength: validation.Int(254)},
			"phone":        {Type: "string", MaxLength: validation.Int(20)},
			"customerName": {Type: "string", MaxLength: validation.Int(120)},
			"deviceName":   {Type: "string", MaxLength: validation.Int(120)},
			"value":        {Type: "integer", Minimum: validation.Float(0)},
			"reason":       {Type: "string"},
		},
		Required:             []string{"notificationType"},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"notificationId": {Type: "string"},
			"status": {
				Type: "string",
				Enum: []string{"sent", "failed", "disabled"},
			},
			"channels": {Type: "array", Items: &validation.Property{Type: "string"}},
			"sentAt":   {Type: "string"},
		},
		Required:             []string{"notificationId", "status", "channels", "sentAt"},
		AdditionalProperties: false,
	}
}
