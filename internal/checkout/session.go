// internal/checkout/session.go
package checkout

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"storefront-workers/internal/models"

	"github.com/google/uuid"
)

const SchemaVersion = 1

const (
	MinInstallments = 1
	MaxInstallments = 36
)

var (
	ErrInvalidPaymentMethod   = stderrors.New("invalid payment method")
	ErrInvalidCardType        = stderrors.New("invalid card type")
	ErrCardNotAllowed         = stderrors.New("card selection requires card payment")
	ErrBankNotAllowed         = stderrors.New("bank selection requires PSE payment")
	ErrInstallmentsRange      = fmt.Errorf("installments must be between %d and %d", MinInstallments, MaxInstallments)
	ErrInstallmentsNotAllowed = stderrors.New("installments require a credit card")
)

// Notice is a dismissable message shown to the shopper on the next render.
type Notice struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the checkout state shared by every step. It is persisted as a
// single versioned document by Store.
type Session struct {
	ID              string              `json:"id"`
	Version         int64               `json:"version"`
	SchemaVersion   int                 `json:"schemaVersion"`
	Cart            []models.CartItem   `json:"cart"`
	TradeIn         *models.TradeIn     `json:"tradeIn,omitempty"`
	PaymentMethod   PaymentMethod       `json:"paymentMethod,omitempty"`
	CardID          string              `json:"cardId,omitempty"`
	CardType        CardType            `json:"cardType,omitempty"`
	Bank            string              `json:"bank,omitempty"`
	Installments    int                 `json:"installments,omitempty"`
	Billing         *models.BillingData `json:"billing,omitempty"`
	ShippingAddress *models.Address     `json:"shippingAddress,omitempty"`
	DeliveryMethod  string              `json:"deliveryMethod,omitempty"`
	Notices         []Notice            `json:"notices"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:            id,
		SchemaVersion: SchemaVersion,
		Cart:          []models.CartItem{},
		Notices:       []Notice{},
	}
}

// SetPaymentMethod switches the method and clears selections that belong to
// another method. An empty method clears the payment choice.
func (s *Session) SetPaymentMethod(method PaymentMethod) error {
	if method != "" && !method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}
	if method != PaymentCard {
		s.CardID = ""
		s.CardType = ""
		s.Installments = 0
	}
	if method != PaymentPSE {
		s.Bank = ""
	}
	s.PaymentMethod = method
	return nil
}

func (s *Session) SetCard(cardID string, cardType CardType) error {
	if s.PaymentMethod != PaymentCard {
		return ErrCardNotAllowed
	}
	if !cardType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCardType, cardType)
	}
	s.CardID = cardID
	s.CardType = cardType
	if cardType != CardCredit {
		s.Installments = 0
	}
	return nil
}

func (s *Session) SetBank(bank string) error {
	if s.PaymentMethod != PaymentPSE {
		return ErrBankNotAllowed
	}
	s.Bank = bank
	return nil
}

func (s *Session) SetInstallments(n int) error {
	if !InstallmentsRequired(s.PaymentMethod, s.CardType) {
		return ErrInstallmentsNotAllowed
	}
	if n < MinInstallments || n > MaxInstallments {
		return ErrInstallmentsRange
	}
	s.Installments = n
	return nil
}

func (s *Session) SetCart(items []models.CartItem) {
	if items == nil {
		items = []models.CartItem{}
	}
	s.Cart = items
}

func (s *Session) ApplyTradeIn(t models.TradeIn) {
	if t.AppliedAt == "" {
		t.AppliedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.TradeIn = &t
}

// ClearTradeIn removes the applied trade-in and leaves a notice explaining
// why. It reports false, and adds nothing, when no trade-in was applied.
func (s *Session) ClearTradeIn(reason string) bool {
	if s.TradeIn == nil {
		return false
	}
	s.TradeIn = nil
	s.Notices = append(s.Notices, Notice{
		ID:        uuid.NewString(),
		Code:      NoticeTradeInRemoved,
		Message:   tradeInRemovedMessage(reason),
		CreatedAt: time.Now().UTC(),
	})
	return true
}

// DismissNotice reports whether a notice with id was found.
func (s *Session) DismissNotice(id string) bool {
	for i, n := range s.Notices {
		if n.ID == id {
			s.Notices = append(s.Notices[:i], s.Notices[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) LastNotice() *Notice {
	if len(s.Notices) == 0 {
		return nil
	}
	n := s.Notices[len(s.Notices)-1]
	return &n
}

func (s *Session) Encode() ([]byte, error) {
	out := *s
	out.SchemaVersion = SchemaVersion
	if out.Cart == nil {
		out.Cart = []models.CartItem{}
	}
	if out.Notices == nil {
		out.Notices = []Notice{}
	}
	return json.Marshal(out)
}

func DecodeSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	if s.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported checkout session schema version %d", s.SchemaVersion)
	}
	if s.Cart == nil {
		s.Cart = []models.CartItem{}
	}
	if s.Notices == nil {
		s.Notices = []Notice{}
	}
	return &s, nil
}
