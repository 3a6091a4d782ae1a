// internal/checkout/tradein_check.go
package checkout

const NoticeTradeInRemoved = "TRADE_IN_REMOVED"

const (
	ReasonMultipleItems   = "MULTIPLE_ITEMS"
	ReasonItemNotEligible = "ITEM_NOT_ELIGIBLE"
)

type TradeInCheck struct {
	Valid   bool    `json:"valid"`
	Removed bool    `json:"removed"`
	Reason  string  `json:"reason,omitempty"`
	Notice  *Notice `json:"notice,omitempty"`
}

// RevalidateTradeIn drops an applied trade-in once the cart stops holding
// exactly one eligible unit.
func RevalidateTradeIn(s *Session) TradeInCheck {
	if s.TradeIn == nil {
		return TradeInCheck{Valid: true}
	}

	reason := tradeInViolation(s)
	if reason == "" {
		return TradeInCheck{Valid: true}
	}

	check := TradeInCheck{Reason: reason}
	if s.ClearTradeIn(reason) {
		check.Removed = true
		check.Notice = s.LastNotice()
	}
	return check
}

func tradeInViolation(s *Session) string {
	units := 0
	for _, item := range s.Cart {
		if item.Quantity > 1 {
			units += item.Quantity
		} else {
			units++
		}
	}
	switch {
	case units > 1:
		return ReasonMultipleItems
	case units == 0 || !s.Cart[0].IsTradeInEligible():
		return ReasonItemNotEligible
	}
	return ""
}

func tradeInRemovedMessage(reason string) string {
	switch reason {
	case ReasonMultipleItems:
		return "Your trade-in was removed because it applies to a purchase of a single device."
	case ReasonItemNotEligible:
		return "Your trade-in was removed because the product in your cart is not eligible."
	}
	return "Your trade-in was removed from this purchase."
}
