// internal/checkout/steps_test.go
package checkout

import (
	"testing"

	"storefront-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shippedSession() *Session {
	s := NewSession("sess-1")
	s.ShippingAddress = &models.Address{Line1: "Calle 10 # 43-12", City: "Medellín"}
	s.DeliveryMethod = "standard"
	return s
}

func paidSession(method PaymentMethod, cardType CardType) *Session {
	s := shippedSession()
	_ = s.SetPaymentMethod(method)
	if method == PaymentCard {
		_ = s.SetCard("card-1", cardType)
	}
	return s
}

func TestResolvePreviousStep(t *testing.T) {
	tests := []struct {
		method   PaymentMethod
		cardType CardType
		want     StepID
	}{
		{PaymentCard, CardCredit, Step5},
		{PaymentCard, CardDebit, Step4},
		{PaymentCard, "", Step4},
		{PaymentPSE, "", Step4},
		{PaymentCashOnDelivery, "", Step4},
		{PaymentBankTransfer, CardCredit, Step4},
		{"", "", Step4},
	}

	for _, tt := range tests {
		t.Run(string(tt.method)+"/"+string(tt.cardType), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePreviousStep(tt.method, tt.cardType))
		})
	}
}

func TestBackTarget(t *testing.T) {
	credit := paidSession(PaymentCard, CardCredit)
	debit := paidSession(PaymentCard, CardDebit)

	assert.Equal(t, Step3, BackTarget(Step4, credit))
	assert.Equal(t, Step4, BackTarget(Step5, credit))
	assert.Equal(t, Step5, BackTarget(Step6, credit))
	assert.Equal(t, Step4, BackTarget(Step6, debit))
	assert.Equal(t, Step6, BackTarget(Step7, debit))
}

func TestNextTarget(t *testing.T) {
	credit := paidSession(PaymentCard, CardCredit)
	pse := paidSession(PaymentPSE, "")

	assert.Equal(t, Step5, NextTarget(Step4, credit))
	assert.Equal(t, Step6, NextTarget(Step4, pse))
	assert.Equal(t, Step6, NextTarget(Step5, credit))
	assert.Equal(t, Step7, NextTarget(Step6, pse))
	assert.Equal(t, Step7, NextTarget(Step7, pse))
}

func TestResolve_Preconditions(t *testing.T) {
	withInstallments := paidSession(PaymentCard, CardCredit)
	require.NoError(t, withInstallments.SetInstallments(12))

	complete := paidSession(PaymentPSE, "")
	complete.Billing = &models.BillingData{FullName: "Ana Gómez", DocumentNumber: "1020304050", Email: "ana@example.com"}

	noCard := shippedSession()
	require.NoError(t, noCard.SetPaymentMethod(PaymentCard))

	tests := []struct {
		name       string
		current    StepID
		session    *Session
		wantStep   StepID
		wantReason string
	}{
		{"step4 without shipping", Step4, NewSession("x"), Step3, ReasonShippingIncomplete},
		{"step4 ready", Step4, shippedSession(), Step4, ""},
		{"step5 without method", Step5, shippedSession(), Step4, ReasonPaymentMethodMissing},
		{"step5 debit bypassed", Step5, paidSession(PaymentCard, CardDebit), Step6, ReasonInstallmentsNotRequired},
		{"step5 pse bypassed", Step5, paidSession(PaymentPSE, ""), Step6, ReasonInstallmentsNotRequired},
		{"step5 credit", Step5, paidSession(PaymentCard, CardCredit), Step5, ""},
		{"step6 without method", Step6, shippedSession(), Step4, ReasonPaymentMethodMissing},
		{"step6 card without selection", Step6, noCard, Step4, ReasonCardNotSelected},
		{"step6 credit without installments", Step6, paidSession(PaymentCard, CardCredit), Step5, ReasonInstallmentsMissing},
		{"step6 credit with installments", Step6, withInstallments, Step6, ""},
		{"step6 debit", Step6, paidSession(PaymentCard, CardDebit), Step6, ""},
		{"step7 without billing", Step7, paidSession(PaymentCashOnDelivery, ""), Step6, ReasonBillingIncomplete},
		{"step7 earliest gap wins", Step7, paidSession(PaymentCard, CardCredit), Step5, ReasonInstallmentsMissing},
		{"step7 ready", Step7, complete, Step7, ""},
		{"step3 always renders", Step3, NewSession("x"), Step3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Resolve(tt.current, tt.session)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStep, d.Step)
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.wantStep != tt.current, d.Redirected)
			assert.Equal(t, BackTarget(d.Step, tt.session), d.Back)
		})
	}
}

func TestResolve_InstallmentsRequiredFlag(t *testing.T) {
	d, err := Resolve(Step4, paidSession(PaymentCard, CardCredit))
	require.NoError(t, err)
	assert.True(t, d.InstallmentsRequired)

	d, err = Resolve(Step4, paidSession(PaymentCard, CardDebit))
	require.NoError(t, err)
	assert.False(t, d.InstallmentsRequired)
}

func TestResolve_UnknownStep(t *testing.T) {
	_, err := Resolve("step9", NewSession("x"))
	assert.Error(t, err)
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep(" Step6 ")
	require.NoError(t, err)
	assert.Equal(t, Step6, s)

	_, err = ParseStep("step2")
	assert.Error(t, err)

	assert.True(t, Step4.Before(Step6))
	assert.False(t, Step7.Before(Step5))
}
