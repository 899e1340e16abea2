package ecommerce

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSession(t *testing.T) {
	s := NewSession(nil)
	if s.CurrencyCode() != "" || s.Identity() != "" {
		t.Fatalf("new session = %q/%q, want empty", s.CurrencyCode(), s.Identity())
	}

	s.SetCurrencyCode("EUR")
	s.SetIdentity("customer-42")
	if s.CurrencyCode() != "EUR" {
		t.Errorf("CurrencyCode() = %q, want EUR", s.CurrencyCode())
	}
	if s.Identity() != "customer-42" {
		t.Errorf("Identity() = %q, want customer-42", s.Identity())
	}

	s.Reset()
	if s.CurrencyCode() != "" || s.Identity() != "" {
		t.Errorf("after Reset = %q/%q, want empty", s.CurrencyCode(), s.Identity())
	}
}

func TestSession_SetCurrencyCodeWarnings(t *testing.T) {
	tests := []struct {
		code     string
		wantWarn bool
	}{
		{"USD", false},
		{"", false},
		{"BITCOIN", true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			s := NewSession(zap.New(core))
			s.SetCurrencyCode(tt.code)

			if s.CurrencyCode() != tt.code {
				t.Errorf("CurrencyCode() = %q, want %q", s.CurrencyCode(), tt.code)
			}
			if got := logs.Len() > 0; got != tt.wantWarn {
				t.Errorf("warned = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}
