// internal/tradein/action.go
package tradein

import "fmt"

type ActionType string

const (
	ActionSelectDevice      ActionType = "select_device"
	ActionAnswerEligibility ActionType = "answer_eligibility"
	ActionAnswerCondition   ActionType = "answer_condition"
	ActionCaptureIMEI       ActionType = "capture_imei"
	ActionBack              ActionType = "back"
	ActionReset             ActionType = "reset"
)

const (
	AnswerPowersOn      = "powersOn"
	AnswerFreeOfLocks   = "freeOfLocks"
	AnswerDamageFree    = "damageFree"
	AnswerGoodCondition = "goodCondition"
)

// Action is one submission from the wizard screen.
type Action struct {
	Type    ActionType      `json:"type"`
	Device  *Device         `json:"device,omitempty"`
	Answers map[string]bool `json:"answers,omitempty"`
	IMEI    string          `json:"imei,omitempty"`
}

// Apply records the submission and moves to the next stage when the current
// one is complete. A disqualifying answer is not an error; the wizard simply
// stops there.
func (w *Wizard) Apply(a Action) error {
	switch a.Type {
	case ActionReset:
		w.Reset()
		return nil
	case ActionBack:
		return w.Back()
	case ActionSelectDevice:
		if a.Device == nil {
			return fmt.Errorf("%w: device is required", ErrIncomplete)
		}
		if err := w.SelectDevice(*a.Device); err != nil {
			return err
		}
		if _, err := w.Device.Key(); err != nil {
			return err
		}
	case ActionAnswerEligibility:
		powersOn, freeOfLocks, err := answerPair(a.Answers, AnswerPowersOn, AnswerFreeOfLocks)
		if err != nil {
			return err
		}
		if err := w.AnswerEligibility(powersOn, freeOfLocks); err != nil {
			return err
		}
		if w.Disqualified {
			return nil
		}
	case ActionAnswerCondition:
		damageFree, good, err := answerPair(a.Answers, AnswerDamageFree, AnswerGoodCondition)
		if err != nil {
			return err
		}
		if err := w.AnswerCondition(damageFree, good); err != nil {
			return err
		}
	case ActionCaptureIMEI:
		if err := w.CaptureIMEI(a.IMEI); err != nil {
			return err
		}
		if !ValidIMEI(w.IMEI) {
			return fmt.Errorf("%w: %q", ErrInvalidIMEI, a.IMEI)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	return w.Advance()
}

func answerPair(answers map[string]bool, first, second string) (bool, bool, error) {
	a, ok := answers[first]
	if !ok {
		return false, false, fmt.Errorf("%w: %s is required", ErrIncomplete, first)
	}
	b, ok := answers[second]
	if !ok {
		return false, false, fmt.Errorf("%w: %s is required", ErrIncomplete, second)
	}
	return a, b, nil
}
