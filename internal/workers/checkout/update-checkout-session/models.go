// internal/workers/checkout/update-checkout-session/models.go
package updatecheckoutsession

import (
	"context"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/models"
)

type Input struct {
	SessionID string `json:"sessionId,omitempty"`
	// ExpectedVersion pins the write to the version the storefront rendered.
	// Without it the change is retried against the latest version.
	ExpectedVersion *int64  `json:"expectedVersion,omitempty"`
	Changes         Changes `json:"changes"`
	// Legacy seeds a new session from the old browser-stored keys.
	Legacy map[string]string `json:"legacy,omitempty"`
}

// Changes lists the fields to write. Nil fields are left untouched.
type Changes struct {
	Cart            []models.CartItem   `json:"cart,omitempty"`
	PaymentMethod   *string             `json:"paymentMethod,omitempty"`
	Card            *CardSelection      `json:"card,omitempty"`
	Bank            *string             `json:"bank,omitempty"`
	Installments    *int                `json:"installments,omitempty"`
	Billing         *models.BillingData `json:"billing,omitempty"`
	ShippingAddress *models.Address     `json:"shippingAddress,omitempty"`
	DeliveryMethod  *string             `json:"deliveryMethod,omitempty"`
	TradeIn         *models.TradeIn     `json:"tradeIn,omitempty"`
	ClearTradeIn    bool                `json:"clearTradeIn,omitempty"`
	DismissNotice   string              `json:"dismissNotice,omitempty"`
}

type CardSelection struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type Output struct {
	SessionID      string             `json:"sessionId"`
	Version        int64              `json:"version"`
	NextStep       checkout.StepID    `json:"nextStep"`
	Created        bool               `json:"created"`
	TradeInRemoved bool               `json:"tradeInRemoved"`
	Warnings       []checkout.Warning `json:"warnings,omitempty"`
}

type SessionStore interface {
	Create(ctx context.Context, s *checkout.Session) error
	Load(ctx context.Context, id string) (*checkout.Session, error)
	Save(ctx context.Context, s *checkout.Session, expectedVersion int64) error
	Update(ctx context.Context, id string, fn func(*checkout.Session) error) (*checkout.Session, error)
}

type ServiceDependencies struct {
	Store  SessionStore
	Logger logger.Logger
}
