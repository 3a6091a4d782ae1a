// internal/workers/notification/send-trade-in-notification/service.go
package sendtradeinnotification

import (
	"context"
	"fmt"
	"time"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/models"
	"storefront-workers/internal/tradein"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

type Service struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		email:  deps.Email,
		sms:    deps.SMS,
		logger: deps.Logger,
	}
}

type delivery struct {
	channel   string
	recipient string
	send      func(ctx context.Context) error
}

// Execute delivers the notification on every enabled channel the input has
// a recipient for. If no channel succeeds the job is failed with a retryable
// error; a partial delivery reports status failed so the sent channel is not
// repeated.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	tmpl, ok := templates[input.NotificationType]
	if !ok {
		return nil, errors.NewInputValidationError(fmt.Sprintf("notificationType: unknown type %q", input.NotificationType))
	}

	deliveries, err := s.plan(input, tmpl)
	if err != nil {
		return nil, err
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         models.NotificationDisabled,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}
	if len(deliveries) == 0 {
		s.logger.Info("no channel enabled for notification", map[string]interface{}{
			"notificationId": output.NotificationID,
			"type":           input.NotificationType,
		})
		return output, nil
	}

	var firstErr error
	for _, d := range deliveries {
		if err := d.send(ctx); err != nil {
			metrics.NotificationsSent.WithLabelValues(input.NotificationType, d.channel, models.NotificationFailed).Inc()
			s.logger.Error("notification delivery failed", map[string]interface{}{
				"notificationId": output.NotificationID,
				"channel":        d.channel,
				"recipient":      d.recipient,
				"error":          err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.NotificationsSent.WithLabelValues(input.NotificationType, d.channel, models.NotificationSent).Inc()
		output.Channels = append(output.Channels, d.channel)
	}

	switch {
	case len(output.Channels) == 0:
		return nil, errors.NewNotificationSendFailedError(input.NotificationType, firstErr)
	case firstErr != nil:
		output.Status = models.NotificationFailed
	default:
		output.Status = models.NotificationSent
	}

	s.logger.Info("notification sent", map[string]interface{}{
		"notificationId": output.NotificationID,
		"type":           input.NotificationType,
		"status":         output.Status,
		"channels":       output.Channels,
	})
	return output, nil
}

func (s *Service) plan(input *Input, tmpl models.NotificationTemplate) ([]delivery, error) {
	data := templateData(input, tradein.FormatCOP(input.Value))
	var deliveries []delivery

	if s.config.EmailEnabled && s.email != nil && input.Email != "" {
		if !validation.ValidateEmail(input.Email) {
			return nil, errors.NewInputValidationError("email: invalid address")
		}
		subject, err := renderText(tmpl.Type+".subject", tmpl.Subject, data)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		text, err := renderText(tmpl.Type+".body", tmpl.Body, data)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		var html string
		if tmpl.HTMLBody != "" {
			if html, err = renderHTML(tmpl.Type+".html", tmpl.HTMLBody, data); err != nil {
				return nil, errors.NewInternalError(err)
			}
		}
		to := input.Email
		deliveries = append(deliveries, delivery{
			channel:   models.ChannelEmail,
			recipient: to,
			send: func(ctx context.Context) error {
				return s.sendEmail(ctx, to, subject, text, html)
			},
		})
	}

	// Only quotes have an SMS body.
	if s.config.SMSEnabled && s.sms != nil && input.Phone != "" && tmpl.SMSBody != "" {
		if !validation.ValidatePhone(input.Phone) {
			return nil, errors.NewInputValidationError("phone: expected a +57 mobile number")
		}
		message, err := renderText(tmpl.Type+".sms", tmpl.SMSBody, data)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		to := input.Phone
		deliveries = append(deliveries, delivery{
			channel:   models.ChannelSMS,
			recipient: to,
			send: func(ctx context.Context) error {
				return s.sendSMS(ctx, to, message)
			},
		})
	}
	return deliveries, nil
}

func (s *Service) sendEmail(ctx context.Context, to, subject, text, html string) error {
	body := &sestypes.Body{Text: &sestypes.Content{Data: aws.String(text)}}
	if html != "" {
		body.Html = &sestypes.Content{Data: aws.String(html)}
	}
	_, err := s.email.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body:    body,
		},
		Source: aws.String(s.config.FromEmail),
	})
	return err
}

func (s *Service) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if s.config.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(s.config.SenderID)},
		}
	}
	_, err := s.sms.Publish(ctx, input)
	return err
}
