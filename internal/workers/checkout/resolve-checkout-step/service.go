// internal/workers/checkout/resolve-checkout-step/service.go
package resolvecheckoutstep

import (
	"context"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/errors"
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

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	current, err := checkout.ParseStep(input.CurrentStep)
	if err != nil {
		return nil, errors.NewInvalidCheckoutStepError(input.CurrentStep)
	}

	session, err := s.store.Load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	// The cart may have changed since the trade-in was applied.
	check := checkout.RevalidateTradeIn(session)
	if check.Removed {
		session, err = s.store.Update(ctx, input.SessionID, func(fresh *checkout.Session) error {
			check = checkout.RevalidateTradeIn(fresh)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if check.Removed {
			metrics.TradeInsRemoved.WithLabelValues(check.Reason).Inc()
			s.logger.Info("trade-in removed before step resolution", map[string]interface{}{
				"sessionId": input.SessionID,
				"reason":    check.Reason,
			})
		}
	}

	target, err := s.target(current, input.Action, session)
	if err != nil {
		return nil, err
	}

	decision, err := checkout.Resolve(target, session)
	if err != nil {
		return nil, errors.NewInvalidCheckoutStepError(string(target))
	}

	s.logger.Info("checkout step resolved", map[string]interface{}{
		"sessionId":  input.SessionID,
		"current":    string(current),
		"action":     string(input.Action),
		"step":       string(decision.Step),
		"redirected": decision.Redirected,
		"reason":     decision.Reason,
	})

	return &Output{
		Step:                 decision.Step,
		Redirected:           decision.Redirected,
		BackStep:             decision.Back,
		Reason:               decision.Reason,
		InstallmentsRequired: decision.InstallmentsRequired,
		TradeInRemoved:       check.Removed,
		Notice:               check.Notice,
		SessionVersion:       session.Version,
	}, nil
}

// target applies the navigation action before preconditions are checked.
func (s *Service) target(current checkout.StepID, action Action, session *checkout.Session) (checkout.StepID, error) {
	switch action {
	case ActionEnter, "":
		return current, nil
	case ActionNext:
		return checkout.NextTarget(current, session), nil
	case ActionBack:
		return checkout.BackTarget(current, session), nil
	}
	return "", errors.NewInputValidationError("unknown action: " + string(action))
}
