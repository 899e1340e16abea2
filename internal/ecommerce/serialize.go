package ecommerce

import (
	"maps"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// MessageTypeCommerce is the `dt` value of every commerce upload.
const MessageTypeCommerce = "cm"

// WireEvent is the compact upload payload of a CommerceEvent. Exactly one of
// ProductAction, PromotionAction and Impressions is set.
type WireEvent struct {
	MessageType     string                  `json:"dt"`
	ID              types.EventID           `json:"id"`
	Name            string                  `json:"n"`
	EventType       types.CommerceEventType `json:"et"`
	Timestamp       int64                   `json:"ct,omitempty"`
	Attributes      types.Attributes        `json:"attrs"`
	CurrencyCode    string                  `json:"cu,omitempty"`
	Flags           map[string][]string     `json:"flags"`
	ProductAction   *WireProductAction      `json:"pd,omitempty"`
	PromotionAction *WirePromotionAction    `json:"pm,omitempty"`
	Impressions     []WireImpression        `json:"pi,omitempty"`
}

// WireProductAction is the `pd` block. The transaction amounts are always
// present, defaulting to 0.
type WireProductAction struct {
	Action          string        `json:"an"`
	CheckoutStep    any           `json:"cs,omitempty"`
	CheckoutOptions any           `json:"co,omitempty"`
	Products        []WireProduct `json:"pl"`
	TransactionID   any           `json:"ti,omitempty"`
	Affiliation     string        `json:"ta,omitempty"`
	CouponCode      string        `json:"tcc,omitempty"`
	Revenue         float64       `json:"tr"`
	Shipping        float64       `json:"ts"`
	Tax             float64       `json:"tt"`
}

// WireProduct is one product entry. The sku travels verbatim.
type WireProduct struct {
	ID          any              `json:"id"`
	Name        string           `json:"nm"`
	Price       float64          `json:"pr"`
	Quantity    float64          `json:"qt"`
	Brand       string           `json:"br,omitempty"`
	Variant     string           `json:"va,omitempty"`
	Category    string           `json:"ca,omitempty"`
	Position    float64          `json:"ps"`
	CouponCode  string           `json:"cc,omitempty"`
	TotalAmount float64          `json:"tpa"`
	Attributes  types.Attributes `json:"attrs,omitempty"`
}

// WirePromotionAction is the `pm` block.
type WirePromotionAction struct {
	Action     string          `json:"an"`
	Promotions []WirePromotion `json:"pl"`
}

// WirePromotion is one promotion entry.
type WirePromotion struct {
	ID       any     `json:"id"`
	Name     string  `json:"nm"`
	Creative string  `json:"cr"`
	Position float64 `json:"ps"`
}

// WireImpression is one `pi` entry.
type WireImpression struct {
	List     string        `json:"pil"`
	Products []WireProduct `json:"pl"`
}

// Serialize converts an assembled event to its upload payload. It performs no
// validation: the event is assumed to come from the Assembler. A nil event
// serializes to nil.
func Serialize(event *types.CommerceEvent) *WireEvent {
	if event == nil {
		return nil
	}
	w := &WireEvent{
		MessageType:  MessageTypeCommerce,
		ID:           event.ID,
		Name:         event.EventName,
		EventType:    event.EventType,
		Attributes:   maps.Clone(event.Attributes),
		CurrencyCode: event.CurrencyCode,
		Flags:        normalizeFlags(event.CustomFlags),
	}
	if w.Attributes == nil {
		w.Attributes = types.Attributes{}
	}
	if ts := types.EventIDTime(event.ID); !ts.IsZero() {
		w.Timestamp = ts.UnixMilli()
	}

	switch {
	case event.ProductAction != nil:
		pa := event.ProductAction
		w.ProductAction = &WireProductAction{
			Action:          pa.ActionType.WireName(),
			CheckoutStep:    pa.CheckoutStep,
			CheckoutOptions: pa.CheckoutOptions,
			Products:        wireProducts(pa.Products),
			Revenue:         pa.TotalAmount,
			Shipping:        pa.ShippingAmount,
			Tax:             pa.TaxAmount,
		}
		if pa.HasTransaction {
			w.ProductAction.TransactionID = pa.TransactionID
			w.ProductAction.Affiliation = pa.Affiliation
			w.ProductAction.CouponCode = pa.CouponCode
		}
	case event.PromotionAction != nil:
		pm := event.PromotionAction
		promotions := make([]WirePromotion, 0, len(pm.Promotions))
		for _, p := range pm.Promotions {
			promotions = append(promotions, WirePromotion{
				ID:       p.ID,
				Name:     p.Name,
				Creative: p.Creative,
				Position: p.Position,
			})
		}
		w.PromotionAction = &WirePromotionAction{
			Action:     pm.ActionType.WireName(),
			Promotions: promotions,
		}
	case len(event.Impressions) > 0:
		w.Impressions = make([]WireImpression, 0, len(event.Impressions))
		for _, block := range event.Impressions {
			w.Impressions = append(w.Impressions, WireImpression{
				List:     block.Name,
				Products: wireProducts(block.Products),
			})
		}
	}
	return w
}

func wireProducts(items []types.ProductItem) []WireProduct {
	out := make([]WireProduct, 0, len(items))
	for _, p := range items {
		out = append(out, WireProduct{
			ID:          p.Sku,
			Name:        p.Name,
			Price:       p.Price,
			Quantity:    p.Quantity,
			Brand:       p.Brand,
			Variant:     p.Variant,
			Category:    p.Category,
			Position:    p.Position,
			CouponCode:  p.CouponCode,
			TotalAmount: p.TotalAmount,
			Attributes:  maps.Clone(p.Attributes),
		})
	}
	return out
}

// normalizeFlags converts every flag value to a list of strings. Nil values
// are dropped.
func normalizeFlags(flags map[string]any) map[string][]string {
	out := make(map[string][]string, len(flags))
	for k, v := range flags {
		switch vv := v.(type) {
		case nil:
			continue
		case []string:
			out[k] = append([]string{}, vv...)
		case []any:
			values := make([]string, 0, len(vv))
			for _, item := range vv {
				if item != nil {
					values = append(values, stringify(item))
				}
			}
			out[k] = values
		default:
			out[k] = []string{stringify(v)}
		}
	}
	return out
}
