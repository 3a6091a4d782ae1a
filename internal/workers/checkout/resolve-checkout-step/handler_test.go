// internal/workers/checkout/resolve-checkout-step/handler_test.go
package resolvecheckoutstep

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *checkout.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return checkout.NewStore(client, checkout.StoreOptions{TTL: time.Hour, Logger: logger.NewTestLogger(t)})
}

func createTestHandler(t *testing.T, store SessionStore) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Store:        store,
		Logger:       logger.NewTestLogger(t),
	})
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

func phone(qty int) models.CartItem {
	return models.CartItem{ProductID: "p-1", Name: "Galaxy A55", Quantity: qty, Price: 1899900, TradeInEligible: models.Bool(true)}
}

// seed stores a session whose shipping step is complete.
func seed(t *testing.T, store *checkout.Store, mutate func(s *checkout.Session)) *checkout.Session {
	t.Helper()
	s := checkout.NewSession("")
	s.SetCart([]models.CartItem{phone(1)})
	s.ShippingAddress = &models.Address{Line1: "Calle 10 # 5-20", City: "Bogotá"}
	s.DeliveryMethod = "standard"
	if mutate != nil {
		mutate(s)
	}
	require.NoError(t, store.Create(context.Background(), s))
	return s
}

func payByCard(cardType checkout.CardType) func(s *checkout.Session) {
	return func(s *checkout.Session) {
		if err := s.SetPaymentMethod(checkout.PaymentCard); err != nil {
			panic(err)
		}
		if err := s.SetCard("card-1", cardType); err != nil {
			panic(err)
		}
	}
}

func TestHandler_Execute_Navigation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(s *checkout.Session)
		current    string
		action     Action
		wantStep   checkout.StepID
		wantBack   checkout.StepID
		redirected bool
		reason     string
	}{
		{
			name:     "enter payment with shipping done",
			current:  "step4",
			action:   ActionEnter,
			wantStep: checkout.Step4,
			wantBack: checkout.Step3,
		},
		{
			name: "billing without shipping goes back to shipping",
			mutate: func(s *checkout.Session) {
				s.ShippingAddress = nil
			},
			current:    "step6",
			action:     ActionEnter,
			wantStep:   checkout.Step3,
			wantBack:   checkout.Step3,
			redirected: true,
			reason:     checkout.ReasonShippingIncomplete,
		},
		{
			name:     "next from payment with credit card",
			mutate:   payByCard(checkout.CardCredit),
			current:  "step4",
			action:   ActionNext,
			wantStep: checkout.Step5,
			wantBack: checkout.Step4,
		},
		{
			name:     "next from payment with debit card skips installments",
			mutate:   payByCard(checkout.CardDebit),
			current:  "step4",
			action:   ActionNext,
			wantStep: checkout.Step6,
			wantBack: checkout.Step4,
		},
		{
			name:     "back from billing with debit card",
			mutate:   payByCard(checkout.CardDebit),
			current:  "step6",
			action:   ActionBack,
			wantStep: checkout.Step4,
			wantBack: checkout.Step3,
		},
		{
			name:       "installments entered with debit card",
			mutate:     payByCard(checkout.CardDebit),
			current:    "step5",
			action:     ActionEnter,
			wantStep:   checkout.Step6,
			wantBack:   checkout.Step4,
			redirected: true,
			reason:     checkout.ReasonInstallmentsNotRequired,
		},
		{
			name:       "review without billing data",
			mutate:     payByCard(checkout.CardDebit),
			current:    "step7",
			action:     ActionEnter,
			wantStep:   checkout.Step6,
			wantBack:   checkout.Step4,
			redirected: true,
			reason:     checkout.ReasonBillingIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			s := seed(t, store, tt.mutate)
			h := createTestHandler(t, store)

			out, err := h.Execute(context.Background(), &Input{
				SessionID:   s.ID,
				CurrentStep: tt.current,
				Action:      tt.action,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantStep, out.Step)
			assert.Equal(t, tt.wantBack, out.BackStep)
			assert.Equal(t, tt.redirected, out.Redirected)
			assert.Equal(t, tt.reason, out.Reason)
			assert.False(t, out.TradeInRemoved)
			assert.Equal(t, int64(1), out.SessionVersion)
		})
	}
}

func TestHandler_Execute_RemovesInvalidTradeIn(t *testing.T) {
	store := newStore(t)
	s := seed(t, store, func(s *checkout.Session) {
		s.ApplyTradeIn(models.TradeIn{BrandCode: "APL", ModelCode: "IP13-128", Grade: "A", Value: 1200000, Currency: "COP"})
		s.SetCart([]models.CartItem{phone(2)})
	})
	h := createTestHandler(t, store)

	out, err := h.Execute(context.Background(), &Input{SessionID: s.ID, CurrentStep: "step4"})
	require.NoError(t, err)

	assert.True(t, out.TradeInRemoved)
	require.NotNil(t, out.Notice)
	assert.Equal(t, checkout.NoticeTradeInRemoved, out.Notice.Code)
	assert.Equal(t, int64(2), out.SessionVersion)
	assert.Equal(t, checkout.Step4, out.Step)

	stored, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TradeIn)
	assert.Len(t, stored.Notices, 1)

	// Nothing left to remove on the next render.
	again, err := h.Execute(context.Background(), &Input{SessionID: s.ID, CurrentStep: "step4"})
	require.NoError(t, err)
	assert.False(t, again.TradeInRemoved)
	assert.Equal(t, int64(2), again.SessionVersion)
}

func TestHandler_Execute_Errors(t *testing.T) {
	store := newStore(t)
	s := seed(t, store, nil)
	h := createTestHandler(t, store)

	tests := []struct {
		name  string
		input *Input
		code  errors.ErrorCode
	}{
		{"missing session", &Input{SessionID: "ghost", CurrentStep: "step4"}, errors.ErrCodeSessionNotFound},
		{"unknown step", &Input{SessionID: s.ID, CurrentStep: "step9"}, errors.ErrCodeInvalidCheckoutStep},
		{"unknown action", &Input{SessionID: s.ID, CurrentStep: "step4", Action: "jump"}, errors.ErrCodeInputValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestHandler_OutputMatchesSchema(t *testing.T) {
	store := newStore(t)
	s := seed(t, store, func(s *checkout.Session) {
		s.ApplyTradeIn(models.TradeIn{BrandCode: "APL", ModelCode: "IP13-128", Grade: "B", Value: 900000, Currency: "COP"})
		s.SetCart([]models.CartItem{})
	})
	h := createTestHandler(t, store)

	out, err := h.Execute(context.Background(), &Input{SessionID: s.ID, CurrentStep: "step7"})
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &vars))

	result := validation.ValidateInput(vars, GetOutputSchema())
	assert.True(t, result.Valid, "%v", result.GetErrorMessages())
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, newStore(t))

	input, err := h.parseInput(createMockJob(t, map[string]interface{}{
		"sessionId":   "sess-1",
		"currentStep": "step5",
		"orderId":     "ignored",
	}))
	require.NoError(t, err)
	assert.Equal(t, "sess-1", input.SessionID)
	assert.Equal(t, "step5", input.CurrentStep)
	assert.Equal(t, ActionEnter, input.Action)

	input, err = h.parseInput(createMockJob(t, map[string]interface{}{
		"sessionId":   "sess-1",
		"currentStep": "step6",
		"action":      "back",
	}))
	require.NoError(t, err)
	assert.Equal(t, ActionBack, input.Action)

	_, err = h.parseInput(createMockJob(t, map[string]interface{}{"currentStep": "step2"}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed), "got %v", err)
}

func TestNewHandler_RequiresStore(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig()})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{CustomConfig: &Config{}, Store: newStore(t)})
	assert.Error(t, err)
}
