// internal/workers/checkout/revalidate-trade-in/models.go
package revalidatetradein

import (
	"context"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/models"
)

type Input struct {
	SessionID string `json:"sessionId"`
	// Cart replaces the stored cart before the check when present.
	Cart []models.CartItem `json:"cart,omitempty"`
}

type Output struct {
	Valid          bool             `json:"valid"`
	Removed        bool             `json:"removed"`
	Reason         string           `json:"reason,omitempty"`
	Notice         *checkout.Notice `json:"notice,omitempty"`
	SessionVersion int64            `json:"sessionVersion"`
}

type SessionStore interface {
	Load(ctx context.Context, id string) (*checkout.Session, error)
	Update(ctx context.Context, id string, fn func(*checkout.Session) error) (*checkout.Session, error)
}

type ServiceDependencies struct {
	Store  SessionStore
	Logger logger.Logger
}
