// internal/workers/checkout/revalidate-trade-in/service.go
package revalidatetradein

import (
	"context"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
)

type Service struct {
	config *Config
	store  SessionStore
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		store:  deps.Store,
		logger: deps.Logger,
	}
}

// Execute re-checks the applied trade-in against the cart. The session is
// only written when the cart was replaced or the trade-in was dropped.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	var check checkout.TradeInCheck

	if input.Cart == nil {
		session, err := s.store.Load(ctx, input.SessionID)
		if err != nil {
			return nil, err
		}
		if check = checkout.RevalidateTradeIn(session); !check.Removed {
			return toOutput(check, session.Version), nil
		}
	}

	session, err := s.store.Update(ctx, input.SessionID, func(fresh *checkout.Session) error {
		if input.Cart != nil {
			fresh.SetCart(input.Cart)
		}
		check = checkout.RevalidateTradeIn(fresh)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if check.Removed {
		metrics.TradeInsRemoved.WithLabelValues(check.Reason).Inc()
		s.logger.Info("trade-in removed from checkout session", map[string]interface{}{
			"sessionId": input.SessionID,
			"reason":    check.Reason,
			"cartItems": len(session.Cart),
		})
	}
	return toOutput(check, session.Version), nil
}

func toOutput(check checkout.TradeInCheck, version int64) *Output {
	return &Output{
		Valid:          check.Valid,
		Removed:        check.Removed,
		Reason:         check.Reason,
		Notice:         check.Notice,
		SessionVersion: version,
	}
}
