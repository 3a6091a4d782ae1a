// internal/workers/tradein/advance-trade-in-wizard/validation.go
package advancetradeinwizard

import (
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/tradein"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"wizard": {
				Type: "object",
				Properties: map[string]validation.Property{
					"stage": {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(6)},
				},
			},
			"action": {
				Type: "object",
				Properties: map[string]validation.Property{
					"type": {
						Type: "string",
						Enum: []string{
							string(tradein.ActionSelectDevice),
							string(tradein.ActionAnswerEligibility),
							string(tradein.ActionAnswerCondition),
							string(tradein.ActionCaptureIMEI),
							string(tradein.ActionBack),
							string(tradein.ActionReset),
						},
					},
					"device":  {Type: "object"},
					"answers": {Type: "object", AdditionalProperties: &validation.Property{Type: "boolean"}},
					"imei":    {Type: "string"},
				},
				Required: []string{"type"},
			},
		},
		Required:             []string{"action"},
		AdditionalProperties: true,
	}
}
