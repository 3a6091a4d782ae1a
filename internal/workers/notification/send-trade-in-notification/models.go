// internal/workers/notification/send-trade-in-notification/models.go
package sendtradeinnotification

import (
	"context"

	"storefront-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type Input struct {
	NotificationType string `json:"notificationType"` // trade_in_quote or trade_in_removed
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	CustomerName     string `json:"customerName,omitempty"`
	DeviceName       string `json:"deviceName,omitempty"`
	Value            int64  `json:"value,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // sent, failed, disabled
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // RFC 3339
}

type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SMSSender interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ServiceDependencies carries the senders. Either may be nil when its
// channel is disabled.
type ServiceDependencies struct {
	Email  EmailSender
	SMS    SMSSender
	Logger logger.Logger
}
