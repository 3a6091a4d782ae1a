// internal/checkout/steps.go
package checkout

import (
	"fmt"
	"strings"
)

type StepID string

const (
	// Step3 is shipping. It is owned by the cart flow and only appears here
	// as a redirect and back target.
	Step3 StepID = "step3"
	Step4 StepID = "step4" // payment method
	Step5 StepID = "step5" // installments
	Step6 StepID = "step6" // billing data
	Step7 StepID = "step7" // review and confirm
)

var stepOrder = map[StepID]int{Step3: 3, Step4: 4, Step5: 5, Step6: 6, Step7: 7}

func (s StepID) Valid() bool {
	_, ok := stepOrder[s]
	return ok
}

// Before reports whether s comes earlier in the flow than other.
func (s StepID) Before(other StepID) bool {
	return stepOrder[s] < stepOrder[other]
}

func ParseStep(v string) (StepID, error) {
	s := StepID(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown checkout step %q", v)
	}
	return s, nil
}

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentPSE            PaymentMethod = "pse"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentPSE, PaymentCashOnDelivery, PaymentBankTransfer:
		return true
	}
	return false
}

type CardType string

const (
	CardCredit CardType = "credit"
	CardDebit  CardType = "debit"
)

func (c CardType) Valid() bool {
	return c == CardCredit || c == CardDebit
}

const (
	ReasonShippingIncomplete      = "SHIPPING_INCOMPLETE"
	ReasonPaymentMethodMissing    = "PAYMENT_METHOD_MISSING"
	ReasonCardNotSelected         = "CARD_NOT_SELECTED"
	ReasonInstallmentsMissing     = "INSTALLMENTS_MISSING"
	ReasonInstallmentsNotRequired = "INSTALLMENTS_NOT_REQUIRED"
	ReasonBillingIncomplete       = "BILLING_INCOMPLETE"
)

// InstallmentsRequired is true only for payment by credit card.
func InstallmentsRequired(method PaymentMethod, cardType CardType) bool {
	return method == PaymentCard && cardType == CardCredit
}

// ResolvePreviousStep is the one place that decides where "back" goes from
// the steps after installments. An unknown card type behaves like debit.
func ResolvePreviousStep(method PaymentMethod, cardType CardType) StepID {
	if InstallmentsRequired(method, cardType) {
		return Step5
	}
	return Step4
}

func BackTarget(current StepID, s *Session) StepID {
	switch current {
	case Step5:
		return Step4
	case Step6:
		return ResolvePreviousStep(s.PaymentMethod, s.CardType)
	case Step7:
		return Step6
	default:
		return Step3
	}
}

func NextTarget(current StepID, s *Session) StepID {
	switch current {
	case Step3:
		return Step4
	case Step4:
		if InstallmentsRequired(s.PaymentMethod, s.CardType) {
			return Step5
		}
		return Step6
	case Step5:
		return Step6
	default:
		return Step7
	}
}

// Decision is what the storefront should render for a requested step.
type Decision struct {
	Step                 StepID `json:"step"`
	Redirected           bool   `json:"redirected"`
	Back                 StepID `json:"backStep"`
	Reason               string `json:"reason,omitempty"`
	InstallmentsRequired bool   `json:"installmentsRequired"`
}

// Resolve checks the preconditions of current against the session and
// redirects to the earliest incomplete step when they do not hold.
func Resolve(current StepID, s *Session) (Decision, error) {
	if !current.Valid() {
		return Decision{}, fmt.Errorf("unknown checkout step %q", current)
	}
	if s == nil {
		s = &Session{}
	}

	step, reason := current, ""
	switch current {
	case Step4:
		step, reason = shippingGap(s, current)
	case Step5:
		step, reason = shippingGap(s, current)
		if reason != "" {
			break
		}
		if s.PaymentMethod == "" {
			step, reason = Step4, ReasonPaymentMethodMissing
		} else if !InstallmentsRequired(s.PaymentMethod, s.CardType) {
			step, reason = Step6, ReasonInstallmentsNotRequired
		}
	case Step6:
		step, reason = paymentGap(s, current)
	case Step7:
		step, reason = paymentGap(s, current)
		if reason == "" && !s.Billing.IsComplete() {
			step, reason = Step6, ReasonBillingIncomplete
		}
	}

	return Decision{
		Step:                 step,
		Redirected:           step != current,
		Back:                 BackTarget(step, s),
		Reason:               reason,
		InstallmentsRequired: InstallmentsRequired(s.PaymentMethod, s.CardType),
	}, nil
}

func shippingGap(s *Session, current StepID) (StepID, string) {
	if !s.ShippingAddress.IsComplete() || s.DeliveryMethod == "" {
		return Step3, ReasonShippingIncomplete
	}
	return current, ""
}

func paymentGap(s *Session, current StepID) (StepID, string) {
	if step, reason := shippingGap(s, current); reason != "" {
		return step, reason
	}
	switch {
	case s.PaymentMethod == "":
		return Step4, ReasonPaymentMethodMissing
	case s.PaymentMethod == PaymentCard && s.CardID == "":
		return Step4, ReasonCardNotSelected
	case InstallmentsRequired(s.PaymentMethod, s.CardType) && s.Installments == 0:
		return Step5, ReasonInstallmentsMissing
	}
	return current, ""
}
