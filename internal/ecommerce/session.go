package ecommerce

import (
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// Session owns the mutable state shared by the assembler and the cart: the
// current currency code and the identity that namespaces cart records.
// Both start empty and are set explicitly; Reset returns to that state.
// Callers serialize access; Session performs no locking.
type Session struct {
	currencyCode string
	identity     string
	logger       *zap.Logger
}

// NewSession returns an empty session. A nil logger disables warnings.
func NewSession(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{logger: logger}
}

// SetCurrencyCode sets the currency attached to subsequently assembled events.
// Codes that are not ISO 4217 are still accepted but logged.
func (s *Session) SetCurrencyCode(code string) {
	if code != "" {
		if _, err := currency.ParseISO(code); err != nil {
			s.logger.Warn("currency code is not a recognized ISO 4217 code", zap.String("currency_code", code))
		}
	}
	s.currencyCode = code
}

// CurrencyCode returns the current currency code ("" when unset).
func (s *Session) CurrencyCode() string {
	return s.currencyCode
}

// SetIdentity switches the cart namespace. Other identities' carts are left
// untouched.
func (s *Session) SetIdentity(identity string) {
	s.identity = identity
}

// Identity returns the active identity.
func (s *Session) Identity() string {
	return s.identity
}

// Reset clears the currency code and identity. Persisted carts are not
// affected.
func (s *Session) Reset() {
	s.currencyCode = ""
	s.identity = ""
}
