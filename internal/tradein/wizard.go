// internal/tradein/wizard.go
package tradein

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type Stage int

// Stage numbers follow the storefront screens; 4 and 5 were retired.
const (
	StageDevice      Stage = 1
	StageEligibility Stage = 2
	StageCondition   Stage = 3
	StageIMEI        Stage = 6
)

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

func (g Grade) Valid() bool {
	return g == GradeA || g == GradeB || g == GradeC
}

var (
	ErrDisqualified  = stderrors.New("trade-in disqualified")
	ErrWrongStage    = stderrors.New("action not allowed at this stage")
	ErrIncomplete    = stderrors.New("stage is incomplete")
	ErrInvalidIMEI   = stderrors.New("invalid IMEI")
	ErrUnknownAction = stderrors.New("unknown wizard action")
)

// Device is the selection made on the first stage.
type Device struct {
	CategoryID string `json:"categoryId"`
	BrandID    string `json:"brandId"`
	ModelID    string `json:"modelId"`
	CapacityID string `json:"capacityId"`
	BrandCode  string `json:"brandCode,omitempty"`
	ModelCode  string `json:"modelCode,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Key prefers explicit codes and falls back to the legacy identifiers.
func (d *Device) Key() (DeviceKey, error) {
	if d.BrandCode != "" || d.ModelCode != "" {
		k := DeviceKey{BrandCode: d.BrandCode, ModelCode: d.ModelCode}
		return k, k.Validate()
	}
	return ParseLegacyIDs(d.BrandID, d.CapacityID)
}

type Eligibility struct {
	PowersOn    *bool `json:"powersOn,omitempty"`
	FreeOfLocks *bool `json:"freeOfLocks,omitempty"`
}

func (e Eligibility) answered() bool {
	return e.PowersOn != nil && e.FreeOfLocks != nil
}

type Condition struct {
	DamageFree    *bool `json:"damageFree,omitempty"`
	GoodCondition *bool `json:"goodCondition,omitempty"`
}

func (c Condition) answered() bool {
	return c.DamageFree != nil && c.GoodCondition != nil
}

// Wizard is the trade-in questionnaire state. It travels as a process
// variable, so every field is exported.
type Wizard struct {
	Stage        Stage       `json:"stage"`
	Device       *Device     `json:"device,omitempty"`
	Eligibility  Eligibility `json:"eligibility"`
	Condition    Condition   `json:"condition"`
	IMEI         string      `json:"imei,omitempty"`
	Grade        Grade       `json:"grade,omitempty"`
	Disqualified bool        `json:"disqualified"`
	Completed    bool        `json:"completed"`
}

func NewWizard() *Wizard {
	return &Wizard{Stage: StageDevice}
}

// Reset is the only way out of a disqualified wizard.
func (w *Wizard) Reset() {
	*w = Wizard{Stage: StageDevice}
}

func (w *Wizard) guard(stage Stage) error {
	if w.Disqualified {
		return ErrDisqualified
	}
	if w.Completed || w.Stage != stage {
		return fmt.Errorf("%w: at stage %d", ErrWrongStage, w.Stage)
	}
	return nil
}

func (w *Wizard) SelectDevice(d Device) error {
	if err := w.guard(StageDevice); err != nil {
		return err
	}
	w.Device = &d
	return nil
}

// AnswerEligibility records the initial questions. A "no" to either one
// disqualifies the device.
func (w *Wizard) AnswerEligibility(powersOn, freeOfLocks bool) error {
	if err := w.guard(StageEligibility); err != nil {
		return err
	}
	w.Eligibility = Eligibility{PowersOn: &powersOn, FreeOfLocks: &freeOfLocks}
	if !powersOn || !freeOfLocks {
		w.Disqualified = true
	}
	return nil
}

func (w *Wizard) AnswerCondition(damageFree, goodCondition bool) error {
	if err := w.guard(StageCondition); err != nil {
		return err
	}
	w.Condition = Condition{DamageFree: &damageFree, GoodCondition: &goodCondition}
	w.Grade = GradeFor(damageFree, goodCondition)
	return nil
}

func (w *Wizard) CaptureIMEI(imei string) error {
	if err := w.guard(StageIMEI); err != nil {
		return err
	}
	w.IMEI = strings.TrimSpace(imei)
	return nil
}

// CanAdvance reports whether the current stage is complete.
func (w *Wizard) CanAdvance() bool {
	if w.Disqualified || w.Completed {
		return false
	}
	switch w.Stage {
	case StageDevice:
		if w.Device == nil || w.Device.CategoryID == "" || w.Device.BrandID == "" ||
			w.Device.ModelID == "" || w.Device.CapacityID == "" {
			return false
		}
		_, err := w.Device.Key()
		return err == nil
	case StageEligibility:
		return w.Eligibility.answered()
	case StageCondition:
		return w.Condition.answered()
	case StageIMEI:
		return ValidIMEI(w.IMEI)
	}
	return false
}

func (w *Wizard) Advance() error {
	if w.Disqualified {
		return ErrDisqualified
	}
	if !w.CanAdvance() {
		return fmt.Errorf("%w: stage %d", ErrIncomplete, w.Stage)
	}
	switch w.Stage {
	case StageDevice:
		w.Stage = StageEligibility
	case StageEligibility:
		w.Stage = StageCondition
	case StageCondition:
		w.Stage = StageIMEI
	case StageIMEI:
		w.Completed = true
	}
	return nil
}

// Back returns to the previous stage keeping the answers given so far.
func (w *Wizard) Back() error {
	if w.Disqualified {
		return ErrDisqualified
	}
	switch {
	case w.Completed:
		w.Completed = false
	case w.Stage == StageEligibility:
		w.Stage = StageDevice
	case w.Stage == StageCondition:
		w.Stage = StageEligibility
	case w.Stage == StageIMEI:
		w.Stage = StageCondition
	default:
		return fmt.Errorf("%w: already at the first stage", ErrWrongStage)
	}
	return nil
}

// DeviceKey returns the key of the selected device.
func (w *Wizard) DeviceKey() (DeviceKey, error) {
	if w.Device == nil {
		return DeviceKey{}, fmt.Errorf("%w: no device selected", ErrInvalidDeviceKey)
	}
	return w.Device.Key()
}

// GradeFor maps the condition answers to a grade. Damage always yields C.
func GradeFor(damageFree, goodCondition bool) Grade {
	switch {
	case !damageFree:
		return GradeC
	case goodCondition:
		return GradeA
	default:
		return GradeB
	}
}

// ValidIMEI checks length and the Luhn check digit.
func ValidIMEI(imei string) bool {
	if len(imei) != 15 {
		return false
	}
	sum := 0
	for i := 0; i < 15; i++ {
		c := imei[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}
