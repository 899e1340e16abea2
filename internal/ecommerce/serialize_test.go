package ecommerce

import (
	"encoding/json"
	"testing"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

func TestSerialize_Nil(t *testing.T) {
	if got := Serialize(nil); got != nil {
		t.Errorf("Serialize(nil) = %+v, want nil", got)
	}
}

func TestSerialize_WireKeys(t *testing.T) {
	event := &types.CommerceEvent{
		ID:         types.NewEventID(),
		Kind:       types.EventKindProductAction,
		EventName:  "eCommerce - Purchase",
		EventType:  types.CommerceEventProductPurchase,
		Attributes: types.Attributes{},
		ProductAction: &types.ProductAction{
			ActionType:     types.ProductActionPurchase,
			HasTransaction: true,
			TransactionID:  "12345",
			TotalAmount:    44334,
			ShippingAmount: 600,
			TaxAmount:      200,
			Products: []types.ProductItem{
				{Name: "iPhone", Sku: "12345", Price: 400, Quantity: 2, TotalAmount: 800},
			},
		},
	}

	raw, err := json.Marshal(Serialize(event))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if got["dt"] != "cm" || got["n"] != "eCommerce - Purchase" || got["et"] != 16.0 {
		t.Errorf("header = dt:%v n:%v et:%v", got["dt"], got["n"], got["et"])
	}
	if _, ok := got["ct"]; !ok {
		t.Error("ct missing")
	}
	if _, ok := got["cu"]; ok {
		t.Error("cu present for empty currency")
	}

	pd := got["pd"].(map[string]any)
	wantPD := map[string]any{"an": "purchase", "ti": "12345", "tr": 44334.0, "ts": 600.0, "tt": 200.0}
	for k, v := range wantPD {
		if pd[k] != v {
			t.Errorf("pd.%s = %v, want %v", k, pd[k], v)
		}
	}
	for _, k := range []string{"ta", "tcc", "cs", "co"} {
		if _, ok := pd[k]; ok {
			t.Errorf("pd.%s present, want omitted", k)
		}
	}

	pl := pd["pl"].([]any)[0].(map[string]any)
	wantPL := map[string]any{"id": "12345", "nm": "iPhone", "pr": 400.0, "qt": 2.0, "ps": 0.0, "tpa": 800.0}
	for k, v := range wantPL {
		if pl[k] != v {
			t.Errorf("pl.%s = %v, want %v", k, pl[k], v)
		}
	}
	for _, k := range []string{"br", "va", "ca", "cc", "attrs"} {
		if _, ok := pl[k]; ok {
			t.Errorf("pl.%s present, want omitted", k)
		}
	}
}

func TestSerialize_TransactionAmountsDefaultToZero(t *testing.T) {
	event := &types.CommerceEvent{
		Kind: types.EventKindProductAction,
		ProductAction: &types.ProductAction{
			ActionType: types.ProductActionClick,
			Products:   []types.ProductItem{{Name: "iPhone", Sku: 12345}},
		},
	}
	w := Serialize(event)
	raw, _ := json.Marshal(w.ProductAction)
	var pd map[string]any
	json.Unmarshal(raw, &pd)
	for _, k := range []string{"tr", "ts", "tt"} {
		if pd[k] != 0.0 {
			t.Errorf("pd.%s = %v, want 0", k, pd[k])
		}
	}
	if w.ProductAction.Products[0].ID != 12345 {
		t.Errorf("id = %v, want numeric sku verbatim", w.ProductAction.Products[0].ID)
	}
	if w.Timestamp != 0 {
		t.Errorf("ct = %d, want 0 without an event id", w.Timestamp)
	}
	if w.Flags == nil || w.Attributes == nil {
		t.Error("flags and attrs must serialize as objects")
	}
}

func TestNormalizeFlags(t *testing.T) {
	got := normalizeFlags(map[string]any{
		"bool":    true,
		"number":  42,
		"strings": []string{"a", "b"},
		"mixed":   []any{1.5, "x", nil, false},
		"nil":     nil,
	})
	want := map[string][]string{
		"bool":    {"true"},
		"number":  {"42"},
		"strings": {"a", "b"},
		"mixed":   {"1.5", "x", "false"},
	}
	if len(got) != len(want) {
		t.Fatalf("normalizeFlags() = %v, want %v", got, want)
	}
	for k, v := range want {
		if len(got[k]) != len(v) {
			t.Errorf("flags[%s] = %v, want %v", k, got[k], v)
			continue
		}
		for i := range v {
			if got[k][i] != v[i] {
				t.Errorf("flags[%s][%d] = %q, want %q", k, i, got[k][i], v[i])
			}
		}
	}
}
