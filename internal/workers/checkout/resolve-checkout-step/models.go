// internal/workers/checkout/resolve-checkout-step/models.go
package resolvecheckoutstep

import (
	"context"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/logger"
)

type Action string

const (
	ActionEnter Action = "enter"
	ActionNext  Action = "next"
	ActionBack  Action = "back"
)

type Input struct {
	SessionID   string `json:"sessionId"`
	CurrentStep string `json:"currentStep"`
	Action      Action `json:"action"`
}

type Output struct {
	Step                 checkout.StepID  `json:"step"`
	Redirected           bool             `json:"redirected"`
	BackStep             checkout.StepID  `json:"backStep"`
	Reason               string           `json:"reason,omitempty"`
	InstallmentsRequired bool             `json:"installmentsRequired"`
	TradeInRemoved       bool             `json:"tradeInRemoved"`
	Notice               *checkout.Notice `json:"notice,omitempty"`
	SessionVersion       int64            `json:"sessionVersion"`
}

// SessionStore is the part of checkout.Store the step resolver needs.
type SessionStore interface {
	Load(ctx context.Context, id string) (*checkout.Session, error)
	Update(ctx context.Context, id string, fn func(*checkout.Session) error) (*checkout.Session, error)
}

type ServiceDependencies struct {
	Store  SessionStore
	Logger logger.Logger
}
