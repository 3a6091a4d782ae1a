// internal/checkout/legacy.go
package checkout

import (
	"encoding/json"
	"strconv"
	"strings"

	"storefront-workers/internal/models"
)

// Keys written by the storefront before sessions were stored server side.
// Each value is the JSON the browser kept under that key.
const (
	LegacyKeyCart            = "cart"
	LegacyKeyTradeIn         = "tradeIn"
	LegacyKeyPaymentMethod   = "paymentMethod"
	LegacyKeySelectedCardID  = "selectedCardId"
	LegacyKeySelectedBank    = "selectedBank"
	LegacyKeyInstallments    = "installments"
	LegacyKeyBillingData     = "billingData"
	LegacyKeyShippingAddress = "shippingAddress"
	LegacyKeyDeliveryMethod  = "deliveryMethod"
)

// Warning names a legacy entry that could not be migrated.
type Warning struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

type legacyCard struct {
	ID   string   `json:"id"`
	Type CardType `json:"type"`
}

// DecodeLegacy builds a session from the flat legacy keys. Entries that do
// not parse keep their default and are reported instead of aborting the
// migration.
func DecodeLegacy(entries map[string]string) (*Session, []Warning) {
	s := NewSession("")
	var warnings []Warning
	warn := func(key, msg string) {
		warnings = append(warnings, Warning{Key: key, Message: msg})
	}

	if raw, ok := present(entries, LegacyKeyCart); ok {
		var cart []models.CartItem
		if err := json.Unmarshal([]byte(raw), &cart); err != nil {
			warn(LegacyKeyCart, err.Error())
		} else {
			s.SetCart(cart)
		}
	}

	if raw, ok := present(entries, LegacyKeyTradeIn); ok {
		var t models.TradeIn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			warn(LegacyKeyTradeIn, err.Error())
		} else {
			s.ApplyTradeIn(t)
		}
	}

	if raw, ok := present(entries, LegacyKeyPaymentMethod); ok {
		if err := s.SetPaymentMethod(PaymentMethod(strings.ToLower(jsonString(raw)))); err != nil {
			warn(LegacyKeyPaymentMethod, err.Error())
		}
	}

	if raw, ok := present(entries, LegacyKeySelectedCardID); ok {
		card := legacyCard{}
		if err := json.Unmarshal([]byte(raw), &card); err != nil {
			card.ID = jsonString(raw)
		}
		if card.Type == "" {
			card.Type = inferCardType(entries)
		}
		if err := s.SetCard(card.ID, card.Type); err != nil {
			warn(LegacyKeySelectedCardID, err.Error())
		}
	}

	if raw, ok := present(entries, LegacyKeySelectedBank); ok {
		if err := s.SetBank(jsonString(raw)); err != nil {
			warn(LegacyKeySelectedBank, err.Error())
		}
	}

	if raw, ok := present(entries, LegacyKeyInstallments); ok {
		n, err := strconv.Atoi(jsonString(raw))
		if err != nil {
			warn(LegacyKeyInstallments, "installments is not a number")
		} else if err := s.SetInstallments(n); err != nil {
			warn(LegacyKeyInstallments, err.Error())
		}
	}

	if raw, ok := present(entries, LegacyKeyBillingData); ok {
		var b models.BillingData
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			warn(LegacyKeyBillingData, err.Error())
		} else {
			s.Billing = &b
		}
	}

	if raw, ok := present(entries, LegacyKeyShippingAddress); ok {
		var a models.Address
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			warn(LegacyKeyShippingAddress, err.Error())
		} else {
			s.ShippingAddress = &a
		}
	}

	if raw, ok := present(entries, LegacyKeyDeliveryMethod); ok {
		s.DeliveryMethod = jsonString(raw)
	}

	return s, warnings
}

func present(entries map[string]string, key string) (string, bool) {
	raw, ok := entries[key]
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" || raw == "null" {
		return "", false
	}
	return raw, true
}

// jsonString accepts both a JSON-encoded string and a bare value.
func jsonString(raw string) string {
	var v string
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return strings.TrimSpace(v)
	}
	return strings.Trim(raw, `" `)
}

// The legacy keys never stored the card type. Only credit cards could carry
// an installment count, so its presence is taken as credit.
func inferCardType(entries map[string]string) CardType {
	if _, ok := present(entries, LegacyKeyInstallments); ok {
		return CardCredit
	}
	return CardDebit
}
