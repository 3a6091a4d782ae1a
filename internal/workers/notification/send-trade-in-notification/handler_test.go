// internal/workers/notification/send-trade-in-notification/handler_test.go
package sendtradeinnotification

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	sent []*ses.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeSNS struct {
	sent []*sns.PublishInput
	err  error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &sns.PublishOutput{MessageId: aws.String("sms-1")}, nil
}

func enabledConfig() *Config {
	cfg := DefaultConfig()
	cfg.EmailEnabled = true
	cfg.SMSEnabled = true
	cfg.FromEmail = "retoma@tienda.example"
	cfg.SenderID = "TIENDA"
	return cfg
}

func createTestHandler(t *testing.T, cfg *Config, email *fakeSES, sms *fakeSNS) *Handler {
	t.Helper()
	opts := HandlerOptions{CustomConfig: cfg, Logger: logger.NewTestLogger(t)}
	if email != nil {
		opts.Email = email
	}
	if sms != nil {
		opts.SMS = sms
	}
	h, err := NewHandler(opts)
	require.NoError(t, err)
	return h
}

func createMockJob(t *testing.T, variables map[string]interface{}) entities.Job {
	data, err := json.Marshal(variables)
	require.NoError(t, err)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                1,
		Type:               TaskType,
		ProcessInstanceKey: 10,
		Retries:            3,
		Variables:          string(data),
	}}
}

func quoteInput() *Input {
	return &Input{
		NotificationType: models.NotificationTradeInQuote,
		Email:            "ana@example.com",
		Phone:            "+573001234567",
		CustomerName:     "Ana",
		DeviceName:       "iPhone 13 256GB",
		Value:            1234567,
	}
}

func TestHandler_Execute_QuoteOnBothChannels(t *testing.T) {
	email, sms := &fakeSES{}, &fakeSNS{}
	h := createTestHandler(t, enabledConfig(), email, sms)

	out, err := h.Execute(context.Background(), quoteInput())
	require.NoError(t, err)

	assert.Equal(t, models.NotificationSent, out.Status)
	assert.Equal(t, []string{models.ChannelEmail, models.ChannelSMS}, out.Channels)
	assert.NotEmpty(t, out.NotificationID)
	assert.NotEmpty(t, out.SentAt)

	require.Len(t, email.sent, 1)
	msg := email.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, msg.Destination.ToAddresses)
	assert.Equal(t, "retoma@tienda.example", aws.ToString(msg.Source))
	assert.Equal(t, "Your iPhone 13 256GB is worth $1.234.567 on your next purchase", aws.ToString(msg.Message.Subject.Data))
	assert.Contains(t, aws.ToString(msg.Message.Body.Text.Data), "Hi Ana,")
	assert.Contains(t, aws.ToString(msg.Message.Body.Html.Data), "<strong>$1.234.567</strong>")

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+573001234567", aws.ToString(sms.sent[0].PhoneNumber))
	assert.Equal(t, "Your iPhone 13 256GB trade-in quote: $1.234.567.", aws.ToString(sms.sent[0].Message))
	assert.Equal(t, "TIENDA", aws.ToString(sms.sent[0].MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestHandler_Execute_RemovedIsEmailOnly(t *testing.T) {
	email, sms := &fakeSES{}, &fakeSNS{}
	h := createTestHandler(t, enabledConfig(), email, sms)

	out, err := h.Execute(context.Background(), &Input{
		NotificationType: models.NotificationTradeInRemoved,
		Email:            "ana@example.com",
		Phone:            "+573001234567",
		DeviceName:       "Galaxy S21",
		Reason:           "MULTIPLE_ITEMS",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{models.ChannelEmail}, out.Channels)
	assert.Empty(t, sms.sent)
	require.Len(t, email.sent, 1)
	body := aws.ToString(email.sent[0].Message.Body.Text.Data)
	assert.Contains(t, body, "Hi there,")
	assert.Contains(t, body, "single device")
	assert.NotContains(t, body, "{{")
}

func TestHandler_Execute_Disabled(t *testing.T) {
	h := createTestHandler(t, DefaultConfig(), nil, nil)

	out, err := h.Execute(context.Background(), quoteInput())
	require.NoError(t, err)
	assert.Equal(t, models.NotificationDisabled, out.Status)
	assert.Empty(t, out.Channels)
}

func TestHandler_Execute_NoRecipients(t *testing.T) {
	email, sms := &fakeSES{}, &fakeSNS{}
	h := createTestHandler(t, enabledConfig(), email, sms)

	out, err := h.Execute(context.Background(), &Input{NotificationType: models.NotificationTradeInQuote, Value: 10})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationDisabled, out.Status)
	assert.Empty(t, email.sent)
	assert.Empty(t, sms.sent)
}

func TestHandler_Execute_DeliveryFailures(t *testing.T) {
	t.Run("every channel fails", func(t *testing.T) {
		h := createTestHandler(t, enabledConfig(),
			&fakeSES{err: stderrors.New("throttled")}, &fakeSNS{err: stderrors.New("opted out")})

		_, err := h.Execute(context.Background(), quoteInput())
		stdErr, ok := errors.As(err)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})

	t.Run("partial delivery", func(t *testing.T) {
		email := &fakeSES{}
		h := createTestHandler(t, enabledConfig(), email, &fakeSNS{err: stderrors.New("opted out")})

		out, err := h.Execute(context.Background(), quoteInput())
		require.NoError(t, err)
		assert.Equal(t, models.NotificationFailed, out.Status)
		assert.Equal(t, []string{models.ChannelEmail}, out.Channels)
		assert.Len(t, email.sent, 1)
	})
}

func TestHandler_Execute_InvalidRecipients(t *testing.T) {
	h := createTestHandler(t, enabledConfig(), &fakeSES{}, &fakeSNS{})

	bad := quoteInput()
	bad.Email = "not-an-email"
	_, err := h.Execute(context.Background(), bad)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed), "got %v", err)

	bad = quoteInput()
	bad.Phone = "3001234567"
	_, err = h.Execute(context.Background(), bad)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed), "got %v", err)
}

func TestHandler_OutputMatchesSchema(t *testing.T) {
	h := createTestHandler(t, enabledConfig(), &fakeSES{}, &fakeSNS{})

	out, err := h.Execute(context.Background(), quoteInput())
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &vars))

	result := validation.ValidateInput(vars, GetOutputSchema())
	assert.True(t, result.Valid, "%v", result.GetErrorMessages())
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, DefaultConfig(), nil, nil)

	input, err := h.parseInput(createMockJob(t, map[string]interface{}{
		"notificationType": "trade_in_quote",
		"email":            "ana@example.com",
		"value":            1234567,
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), input.Value)

	for _, vars := range []map[string]interface{}{
		{},
		{"notificationType": "order_shipped"},
		{"notificationType": "trade_in_quote", "value": -1},
	} {
		_, err := h.parseInput(createMockJob(t, vars))
		assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed), "%v: got %v", vars, err)
	}
}

func TestNewHandler_RequiresSendersForEnabledChannels(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: enabledConfig(), SMS: &fakeSNS{}})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{CustomConfig: enabledConfig(), Email: &fakeSES{}})
	assert.Error(t, err)
}

func TestHandler_Execute_EscapesShopperInput(t *testing.T) {
	email := &fakeSES{}
	h := createTestHandler(t, enabledConfig(), email, &fakeSNS{})

	_, err := h.Execute(context.Background(), &Input{
		NotificationType: models.NotificationTradeInQuote,
		Email:            "ana@example.com",
		CustomerName:     `<script>alert("x")</script>`,
		DeviceName:       "{{.value}}",
		Value:            1000,
	})
	require.NoError(t, err)
	require.Len(t, email.sent, 1)

	html := aws.ToString(email.sent[0].Message.Body.Html.Data)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "<strong>{{.value}}</strong>")
	assert.Contains(t, html, "<strong>$1.000</strong>")

	text := aws.ToString(email.sent[0].Message.Body.Text.Data)
	assert.Contains(t, text, "We valued your {{.value}} at $1.000.")
}

func TestHandler_Execute_PlainTextOnlyWithoutHTMLTemplate(t *testing.T) {
	email := &fakeSES{}
	h := createTestHandler(t, enabledConfig(), email, &fakeSNS{})

	_, err := h.Execute(context.Background(), &Input{
		NotificationType: models.NotificationTradeInRemoved,
		Email:            "ana@example.com",
		CustomerName:     "<b>Ana</b>",
	})
	require.NoError(t, err)
	require.Len(t, email.sent, 1)
	assert.Nil(t, email.sent[0].Message.Body.Html)
}

func TestRenderText_MissingKeysAreEmpty(t *testing.T) {
	got, err := renderText("t", "Hi {{.name}}, {{.missing}}value", map[string]string{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana, value", got)
}
