// internal/models/notification.go
package models

const (
	NotificationTradeInQuote   = "trade_in_quote"
	NotificationTradeInRemoved = "trade_in_removed"

	ChannelEmail = "email"
	ChannelSMS   = "sms"

	NotificationSent     = "sent"
	NotificationFailed   = "failed"
	NotificationDisabled = "disabled"
)

type Notification struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`    // trade_in_quote, trade_in_removed
	Channel   string                 `json:"channel"` // email, sms
	Recipient string                 `json:"recipient"`
	Status    string                 `json:"status"` // sent, failed, disabled
	Payload   map[string]interface{} `json:"payload,omitempty"`
	SentAt    string                 `json:"sentAt,omitempty"`
	CreatedAt string                 `json:"createdAt"`
}

type NotificationTemplate struct {
	Type     string `json:"type"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
	SMSBody  string `json:"smsBody,omitempty"`
}
