// internal/workers/tradein/calculate-trade-in-value/models.go
package calculatetradeinvalue

import (
	"context"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/tradein"
)

type Input struct {
	SessionID string `json:"sessionId,omitempty"`
	// DeviceKey is "brand/model". BrandID and CapacityID are the older
	// hyphenated identifiers and are only read when DeviceKey is empty.
	DeviceKey  string        `json:"deviceKey,omitempty"`
	BrandID    string        `json:"brandId,omitempty"`
	CapacityID string        `json:"capacityId,omitempty"`
	Grade      tradein.Grade `json:"grade"`
	DeviceName string        `json:"deviceName,omitempty"`
	IMEI       string        `json:"imei,omitempty"`
}

type Output struct {
	Value            int64         `json:"value"`
	Currency         string        `json:"currency"`
	FormattedValue   string        `json:"formattedValue"`
	DeviceKey        string        `json:"deviceKey"`
	Grade            tradein.Grade `json:"grade"`
	AppliedToSession bool          `json:"appliedToSession"`
	SessionVersion   int64         `json:"sessionVersion,omitempty"`
}

// Valuator is satisfied by *tradein.ValuationClient.
type Valuator interface {
	Calculate(ctx context.Context, key tradein.DeviceKey, grade tradein.Grade) (*tradein.Quote, error)
}

type SessionStore interface {
	Update(ctx context.Context, id string, fn func(*checkout.Session) error) (*checkout.Session, error)
}

type ServiceDependencies struct {
	Valuator Valuator
	Store    SessionStore
	Logger   logger.Logger
}
