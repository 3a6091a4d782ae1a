// internal/workers/tradein/calculate-trade-in-value/service.go
package calculatetradeinvalue

import (
	"context"
	"fmt"
	"time"

	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/models"
	"storefront-workers/internal/tradein"
)

const (
	outcomeQuoted   = "quoted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

type Service struct {
	config   *Config
	valuator Valuator
	store    SessionStore
	logger   logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		valuator: deps.Valuator,
		store:    deps.Store,
		logger:   deps.Logger,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.SessionID != "" && s.store == nil {
		return nil, errors.NewInternalError(fmt.Errorf("no session store configured for %s", TaskType))
	}

	key, err := deviceKey(input)
	if err != nil {
		return nil, errors.NewInvalidDeviceKeyError(err.Error())
	}

	quote, err := s.valuator.Calculate(ctx, key, input.Grade)
	if err != nil {
		outcome := outcomeFailed
		if errors.HasCode(err, errors.ErrCodeValuationRejected) {
			outcome = outcomeRejected
		}
		metrics.TradeInValuations.WithLabelValues(string(input.Grade), outcome).Inc()
		return nil, err
	}
	metrics.TradeInValuations.WithLabelValues(string(input.Grade), outcomeQuoted).Inc()

	output := &Output{
		Value:          quote.Value,
		Currency:       quote.Currency,
		FormattedValue: tradein.FormatCOP(quote.Value),
		DeviceKey:      key.String(),
		Grade:          input.Grade,
	}

	if input.SessionID != "" {
		session, err := s.apply(ctx, input, key, quote)
		if err != nil {
			return nil, err
		}
		output.AppliedToSession = true
		output.SessionVersion = session.Version
	}

	s.logger.Info("trade-in valued", map[string]interface{}{
		"deviceKey": output.DeviceKey,
		"grade":     string(input.Grade),
		"value":     quote.Value,
		"sessionId": input.SessionID,
	})
	return output, nil
}

// apply stores the quote on the checkout session. The cart must already
// qualify; the quote is not applied otherwise.
func (s *Service) apply(ctx context.Context, input *Input, key tradein.DeviceKey, quote *tradein.Quote) (*checkout.Session, error) {
	tradeIn := models.TradeIn{
		BrandCode:  key.BrandCode,
		ModelCode:  key.ModelCode,
		DeviceName: input.DeviceName,
		Grade:      string(input.Grade),
		IMEI:       input.IMEI,
		Value:      quote.Value,
		Currency:   quote.Currency,
		AppliedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	return s.store.Update(ctx, input.SessionID, func(session *checkout.Session) error {
		session.ApplyTradeIn(tradeIn)
		if check := checkout.RevalidateTradeIn(session); check.Removed {
			return errors.NewInvalidSessionChangeError(fmt.Sprintf("tradeIn: cart does not qualify: %s", check.Reason))
		}
		return nil
	})
}

func deviceKey(input *Input) (tradein.DeviceKey, error) {
	if input.DeviceKey != "" {
		return tradein.ParseDeviceKey(input.DeviceKey)
	}
	if input.BrandID == "" && input.CapacityID == "" {
		return tradein.DeviceKey{}, fmt.Errorf("%w: deviceKey or brandId and capacityId are required", tradein.ErrInvalidDeviceKey)
	}
	return tradein.ParseLegacyIDs(input.BrandID, input.CapacityID)
}
