// internal/workers/tradein/advance-trade-in-wizard/models.go
package advancetradeinwizard

import "storefront-workers/internal/tradein"

type Input struct {
	// Wizard is the state returned by the previous call; empty starts a new
	// questionnaire.
	Wizard *tradein.Wizard `json:"wizard,omitempty"`
	Action tradein.Action  `json:"action"`
}

type Output struct {
	Wizard       *tradein.Wizard `json:"wizard"`
	Stage        tradein.Stage   `json:"stage"`
	Disqualified bool            `json:"disqualified"`
	Grade        tradein.Grade   `json:"grade,omitempty"`
	Completed    bool            `json:"completed"`
	DeviceKey    string          `json:"deviceKey,omitempty"`
}
