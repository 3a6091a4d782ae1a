// internal/workers/catalog/translate-dynamic-filters/validation.go
package translatedynamicfilters

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"categoryId": {Type: "string", Description: "Catalog category id"},
			"sectionId":  {Type: "string", Description: "Section inside the category, first section when empty"},
			"filters": {
				Type:        "array",
				Description: "Inline filter configuration overriding the registry",
				Items:       &validation.Property{Type: "object", Required: []string{"id", "column"}},
			},
			"state": {
				Type:        "object",
				Description: "Selections keyed by filter id",
				AdditionalProperties: &validation.Property{
					Type: "object",
					Properties: map[string]validation.Property{
						"values": {Type: "array", Items: &validation.Property{Type: "string"}},
						"ranges": {Type: "array", Items: &validation.Property{Type: "string"}},
						"min":    {Type: "number"},
						"max":    {Type: "number"},
					},
				},
			},
			"sessionId": {Type: "string"},
		},
		Required:             []string{"state"},
		AdditionalProperties: true,
	}
}
