// internal/workers/notification/send-trade-in-notification/templates.go
package sendtradeinnotification

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/models"
)

var templates = map[string]models.NotificationTemplate{
	models.NotificationTradeInQuote: {
		Type:    models.NotificationTradeInQuote,
		Subject: "Your {{.deviceName}} is worth {{.value}} on your next purchase",
		Body: "Hi {{.customerName}},\n\nWe valued your {{.deviceName}} at {{.value}}. " +
			"The amount is taken off your order total at checkout.",
		HTMLBody: "<p>Hi {{.customerName}},</p><p>We valued your <strong>{{.deviceName}}</strong> at " +
			"<strong>{{.value}}</strong>. The amount is taken off your order total at checkout.</p>",
		SMSBody: "Your {{.deviceName}} trade-in quote: {{.value}}.",
	},
	models.NotificationTradeInRemoved: {
		Type:    models.NotificationTradeInRemoved,
		Subject: "Your trade-in was removed from your purchase",
		Body: "Hi {{.customerName}},\n\nWe removed the trade-in for your {{.deviceName}}. {{.reason}} " +
			"You can request a new quote once your cart qualifies.",
	},
}

var reasonText = map[string]string{
	checkout.ReasonMultipleItems:   "Trade-ins apply to purchases of a single device.",
	checkout.ReasonItemNotEligible: "The product in your cart is not part of the trade-in program.",
}

func templateData(input *Input, formattedValue string) map[string]string {
	reason := input.Reason
	if text, ok := reasonText[reason]; ok {
		reason = text
	}
	name := input.CustomerName
	if name == "" {
		name = "there"
	}
	return map[string]string{
		"customerName": name,
		"deviceName":   input.DeviceName,
		"value":        formattedValue,
		"reason":       reason,
	}
}

func renderText(name, src string, data map[string]string) (string, error) {
	tmpl, err := texttemplate.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderHTML escapes every value for the HTML context it lands in.
func renderHTML(name, src string, data map[string]string) (string, error) {
	tmpl, err := htmltemplate.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
