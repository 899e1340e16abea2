package ecommerce

import (
	"maps"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// Attribute keys of expanded events.
const (
	AttrTransactionID  = "Transaction Id"
	AttrAffiliation    = "Affiliation"
	AttrCouponCode     = "Coupon Code"
	AttrTotalAmount    = "Total Amount"
	AttrShippingAmount = "Shipping Amount"
	AttrTaxAmount      = "Tax Amount"
	AttrProductCount   = "Product Count"
	AttrCurrencyCode   = "Currency Code"

	AttrBrand              = "Brand"
	AttrCategory           = "Category"
	AttrName               = "Name"
	AttrID                 = "Id"
	AttrItemPrice          = "Item Price"
	AttrQuantity           = "Quantity"
	AttrPosition           = "Position"
	AttrVariant            = "Variant"
	AttrTotalProductAmount = "Total Product Amount"
	AttrCreative           = "Creative"
	AttrImpressionList     = "Product Impression List"
)

// Expand projects a commerce event onto flat legacy events for forwarders
// that do not understand commerce events. A nil event expands to nil.
//
// Purchase and Refund produce one Total event followed by one Item event per
// product. Other product actions, promotions and impressions produce Item
// events only. Later attribute sources override earlier ones: entity fields,
// then product attributes, then event attributes.
func Expand(event *types.CommerceEvent) []types.LegacyEvent {
	if event == nil {
		return nil
	}
	switch event.Kind {
	case types.EventKindProductAction:
		if event.ProductAction == nil {
			return nil
		}
		return expandProductAction(event)
	case types.EventKindPromotionAction:
		if event.PromotionAction == nil {
			return nil
		}
		return expandPromotionAction(event)
	case types.EventKindImpression:
		return expandImpressions(event)
	default:
		return nil
	}
}

func expandProductAction(event *types.CommerceEvent) []types.LegacyEvent {
	pa := event.ProductAction
	action := pa.ActionType.WireName()
	out := make([]types.LegacyEvent, 0, len(pa.Products)+1)

	if pa.ActionType.IsTransaction() {
		attrs := types.Attributes{
			AttrTotalAmount:    pa.TotalAmount,
			AttrShippingAmount: pa.ShippingAmount,
			AttrTaxAmount:      pa.TaxAmount,
			AttrProductCount:   len(pa.Products),
		}
		if pa.TransactionID != nil {
			attrs[AttrTransactionID] = pa.TransactionID
		}
		setString(attrs, AttrAffiliation, pa.Affiliation)
		setString(attrs, AttrCouponCode, pa.CouponCode)
		setString(attrs, AttrCurrencyCode, event.CurrencyCode)
		maps.Copy(attrs, event.Attributes)
		out = append(out, legacyEvent("eCommerce - "+action+" - Total", attrs))
	}

	for _, item := range pa.Products {
		attrs := productAttributes(item)
		maps.Copy(attrs, event.Attributes)
		if pa.ActionType == types.ProductActionCheckout {
			if pa.CheckoutStep != nil {
				attrs[AttrCheckoutStep] = pa.CheckoutStep
			}
			if pa.CheckoutOptions != nil {
				attrs[AttrCheckoutOptions] = pa.CheckoutOptions
			}
		}
		out = append(out, legacyEvent("eCommerce - "+action+" - Item", attrs))
	}
	return out
}

func expandPromotionAction(event *types.CommerceEvent) []types.LegacyEvent {
	pm := event.PromotionAction
	name := "eCommerce - " + pm.ActionType.WireName() + " - Item"
	out := make([]types.LegacyEvent, 0, len(pm.Promotions))
	for _, p := range pm.Promotions {
		attrs := types.Attributes{AttrPosition: p.Position}
		if p.ID != nil {
			attrs[AttrID] = p.ID
		}
		setString(attrs, AttrCreative, p.Creative)
		setString(attrs, AttrName, p.Name)
		maps.Copy(attrs, event.Attributes)
		out = append(out, legacyEvent(name, attrs))
	}
	return out
}

func expandImpressions(event *types.CommerceEvent) []types.LegacyEvent {
	var out []types.LegacyEvent
	for _, block := range event.Impressions {
		for _, item := range block.Products {
			attrs := types.Attributes{}
			setString(attrs, AttrImpressionList, block.Name)
			maps.Copy(attrs, productAttributes(item))
			maps.Copy(attrs, event.Attributes)
			out = append(out, legacyEvent("eCommerce - Impression - Item", attrs))
		}
	}
	if out == nil {
		out = []types.LegacyEvent{}
	}
	return out
}

// productAttributes flattens a product into Item event attributes, with the
// product's own attributes merged last.
func productAttributes(item types.ProductItem) types.Attributes {
	attrs := types.Attributes{
		AttrItemPrice:          item.Price,
		AttrQuantity:           item.Quantity,
		AttrPosition:           item.Position,
		AttrTotalProductAmount: item.TotalAmount,
	}
	if item.Sku != nil {
		attrs[AttrID] = item.Sku
	}
	setString(attrs, AttrCouponCode, item.CouponCode)
	setString(attrs, AttrBrand, item.Brand)
	setString(attrs, AttrCategory, item.Category)
	setString(attrs, AttrName, item.Name)
	setString(attrs, AttrVariant, item.Variant)
	maps.Copy(attrs, item.Attributes)
	return attrs
}

func setString(attrs types.Attributes, key, value string) {
	if value != "" {
		attrs[key] = value
	}
}

func legacyEvent(name string, attrs types.Attributes) types.LegacyEvent {
	return types.LegacyEvent{
		EventName:       name,
		EventCategory:   types.EventTypeTransaction,
		EventAttributes: attrs,
	}
}
