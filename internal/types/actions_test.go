package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseProductActionType(t *testing.T) {
	tests := []struct {
		raw    string
		want   ProductActionType
		wantOK bool
	}{
		{"AddToCart", ProductActionAddToCart, true},
		{"add_to_cart", ProductActionAddToCart, true},
		{"  PURCHASE ", ProductActionPurchase, true},
		{"remove_from_wallet", ProductActionRemoveFromWallet, true},
		{"Unknown", ProductActionUnknown, true},
		{"teleport", ProductActionUnknown, false},
		{"", ProductActionUnknown, false},
	}
	for _, tt := range tests {
		got, ok := ParseProductActionType(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseProductActionType(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParsePromotionActionType(t *testing.T) {
	tests := []struct {
		raw    string
		want   PromotionActionType
		wantOK bool
	}{
		{"view", PromotionActionView, true},
		{"PromotionClick", PromotionActionClick, true},
		{"hover", PromotionActionUnknown, false},
	}
	for _, tt := range tests {
		got, ok := ParsePromotionActionType(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePromotionActionType(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestProductActionType_Names(t *testing.T) {
	tests := []struct {
		action   ProductActionType
		name     string
		wire     string
		et       CommerceEventType
		isTxn    bool
		validity bool
	}{
		{ProductActionAddToCart, "AddToCart", "add_to_cart", CommerceEventProductAddToCart, false, true},
		{ProductActionPurchase, "Purchase", "purchase", CommerceEventProductPurchase, true, true},
		{ProductActionRefund, "Refund", "refund", CommerceEventProductRefund, true, true},
		{ProductActionAddToWallet, "AddToWallet", "add_to_wallet", CommerceEventProductAddToWallet, false, true},
		{ProductActionType(99), "Invalid", "", CommerceEventUnknown, false, false},
		{ProductActionType(-1), "Invalid", "", CommerceEventUnknown, false, false},
	}
	for _, tt := range tests {
		if got := tt.action.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.action.WireName(); got != tt.wire {
			t.Errorf("%s.WireName() = %q, want %q", tt.name, got, tt.wire)
		}
		if got := tt.action.CommerceEventType(); got != tt.et {
			t.Errorf("%s.CommerceEventType() = %d, want %d", tt.name, got, tt.et)
		}
		if got := tt.action.IsTransaction(); got != tt.isTxn {
			t.Errorf("%s.IsTransaction() = %v, want %v", tt.name, got, tt.isTxn)
		}
		if got := tt.action.Valid(); got != tt.validity {
			t.Errorf("%s.Valid() = %v, want %v", tt.name, got, tt.validity)
		}
	}

	if got := PromotionActionClick.CommerceEventType(); got != CommerceEventPromotionClick {
		t.Errorf("PromotionActionClick.CommerceEventType() = %d, want %d", got, CommerceEventPromotionClick)
	}
	if got := PromotionActionView.WireName(); got != "view" {
		t.Errorf("PromotionActionView.WireName() = %q, want view", got)
	}
}

func TestProductCodec(t *testing.T) {
	data, err := EncodeProducts(nil)
	if err != nil || string(data) != "[]" {
		t.Fatalf("EncodeProducts(nil) = %s, %v, want []", data, err)
	}

	in := []*Product{{Name: "iPhone", Sku: 12345678901234567, Price: "400", Attributes: Attributes{"color": "red"}}}
	data, err = EncodeProducts(in)
	if err != nil {
		t.Fatalf("EncodeProducts() error = %v", err)
	}
	out, err := DecodeProducts(data)
	if err != nil {
		t.Fatalf("DecodeProducts() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("DecodeProducts() returned %d products, want 1", len(out))
	}
	if out[0].Sku != json.Number("12345678901234567") {
		t.Errorf("Sku = %#v, want exact json.Number", out[0].Sku)
	}
	if out[0].Price != "400" || out[0].Attributes["color"] != "red" {
		t.Errorf("product = %+v", out[0])
	}

	if got, err := DecodeProducts([]byte("  ")); got != nil || err != nil {
		t.Errorf("DecodeProducts(blank) = %v, %v, want nil, nil", got, err)
	}
	if _, err := DecodeProducts([]byte("{")); err == nil {
		t.Error("DecodeProducts(malformed) should fail")
	}
}

func TestEventIDs(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewEventID()
	if _, err := ParseEventID(string(id)); err != nil {
		t.Fatalf("ParseEventID(%q) error = %v", id, err)
	}
	if ts := EventIDTime(id); ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("EventIDTime() = %v, want about now", ts)
	}
	if _, err := ParseEventID("not-a-uuid"); err == nil {
		t.Error("ParseEventID(not-a-uuid) should fail")
	}
	if !EventIDTime("not-a-uuid").IsZero() {
		t.Error("EventIDTime(invalid) should be zero")
	}
}
