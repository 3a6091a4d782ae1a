// internal/workers/checkout/update-checkout-session/service.go
package updatecheckoutsession

import (
	"context"
	"fmt"

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
	if input.SessionID == "" {
		return s.create(ctx, input)
	}

	var check checkout.TradeInCheck
	apply := func(session *checkout.Session) error {
		var err error
		check, err = applyChanges(session, input.Changes)
		return err
	}

	var session *checkout.Session
	if input.ExpectedVersion != nil {
		loaded, err := s.store.Load(ctx, input.SessionID)
		if err != nil {
			return nil, err
		}
		if err := apply(loaded); err != nil {
			return nil, err
		}
		if err := s.store.Save(ctx, loaded, *input.ExpectedVersion); err != nil {
			return nil, err
		}
		session = loaded
	} else {
		updated, err := s.store.Update(ctx, input.SessionID, apply)
		if err != nil {
			return nil, err
		}
		session = updated
	}

	// Update may run apply more than once; count the persisted outcome only.
	countRemoval(check)
	return s.output(session, false, check.Removed, nil), nil
}

func (s *Service) create(ctx context.Context, input *Input) (*Output, error) {
	session := checkout.NewSession("")
	var warnings []checkout.Warning
	if len(input.Legacy) > 0 {
		session, warnings = checkout.DecodeLegacy(input.Legacy)
		for _, w := range warnings {
			s.logger.Warn("legacy checkout entry not migrated", map[string]interface{}{
				"key":   w.Key,
				"error": w.Message,
			})
		}
	}

	check, err := applyChanges(session, input.Changes)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}
	countRemoval(check)

	s.logger.Info("checkout session created", map[string]interface{}{
		"sessionId": session.ID,
		"migrated":  len(input.Legacy) > 0,
	})
	return s.output(session, true, check.Removed, warnings), nil
}

func (s *Service) output(session *checkout.Session, created, removed bool, warnings []checkout.Warning) *Output {
	// Resolving the last step yields the earliest step still incomplete.
	decision, _ := checkout.Resolve(checkout.Step7, session)
	return &Output{
		SessionID:      session.ID,
		Version:        session.Version,
		NextStep:       decision.Step,
		Created:        created,
		TradeInRemoved: removed,
		Warnings:       warnings,
	}
}

// applyChanges writes the requested fields through the session mutators and
// then re-checks the trade-in against the resulting cart.
func applyChanges(session *checkout.Session, c Changes) (checkout.TradeInCheck, error) {
	if c.Cart != nil {
		session.SetCart(c.Cart)
	}
	if c.PaymentMethod != nil {
		if err := session.SetPaymentMethod(checkout.PaymentMethod(*c.PaymentMethod)); err != nil {
			return checkout.TradeInCheck{}, invalidChange("paymentMethod", err)
		}
	}
	if c.Card != nil {
		if err := session.SetCard(c.Card.ID, checkout.CardType(c.Card.Type)); err != nil {
			return checkout.TradeInCheck{}, invalidChange("card", err)
		}
	}
	if c.Bank != nil {
		if err := session.SetBank(*c.Bank); err != nil {
			return checkout.TradeInCheck{}, invalidChange("bank", err)
		}
	}
	if c.Installments != nil {
		if err := session.SetInstallments(*c.Installments); err != nil {
			return checkout.TradeInCheck{}, invalidChange("installments", err)
		}
	}
	if c.Billing != nil {
		session.Billing = c.Billing
	}
	if c.ShippingAddress != nil {
		session.ShippingAddress = c.ShippingAddress
	}
	if c.DeliveryMethod != nil {
		session.DeliveryMethod = *c.DeliveryMethod
	}
	if c.DismissNotice != "" && !session.DismissNotice(c.DismissNotice) {
		return checkout.TradeInCheck{}, invalidChange("dismissNotice", fmt.Errorf("notice %q not found", c.DismissNotice))
	}
	if c.ClearTradeIn {
		session.TradeIn = nil
	}

	if c.TradeIn != nil {
		session.ApplyTradeIn(*c.TradeIn)
		check := checkout.RevalidateTradeIn(session)
		if check.Removed {
			return checkout.TradeInCheck{}, invalidChange("tradeIn", fmt.Errorf("cart does not qualify: %s", check.Reason))
		}
		return check, nil
	}

	return checkout.RevalidateTradeIn(session), nil
}

func countRemoval(check checkout.TradeInCheck) {
	if check.Removed {
		metrics.TradeInsRemoved.WithLabelValues(check.Reason).Inc()
	}
}

func invalidChange(field string, err error) error {
	return errors.NewInvalidSessionChangeError(fmt.Sprintf("%s: %v", field, err))
}
