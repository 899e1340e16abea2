package types

import "strings"

/*
 * Closed action-type enumerations.
 *
 * Each enum has a Go name (used for top-level event names such as
 * "eCommerce - AddToCart") and a wire name (used for the `an` field and for
 * fan-out event names such as "eCommerce - add_to_cart - Item").
 *
 * Parsing is total: ParseProductActionType and ParsePromotionActionType never
 * panic and report membership through their boolean result. Values outside
 * the enumeration are reported invalid by Valid() so that a hand-built
 * ProductActionType(42) fails closed exactly like a misspelled name.
 */

// ProductActionType enumerates the supported product actions.
type ProductActionType int

const (
	ProductActionUnknown ProductActionType = iota
	ProductActionAddToCart
	ProductActionRemoveFromCart
	ProductActionCheckout
	ProductActionCheckoutOption
	ProductActionClick
	ProductActionViewDetail
	ProductActionPurchase
	ProductActionRefund
	ProductActionAddToWishlist
	ProductActionRemoveFromWishlist
	ProductActionAddToWallet
	ProductActionRemoveFromWallet
)

var productActionNames = [...]string{
	ProductActionUnknown:            "Unknown",
	ProductActionAddToCart:          "AddToCart",
	ProductActionRemoveFromCart:     "RemoveFromCart",
	ProductActionCheckout:           "Checkout",
	ProductActionCheckoutOption:     "CheckoutOption",
	ProductActionClick:              "Click",
	ProductActionViewDetail:         "ViewDetail",
	ProductActionPurchase:           "Purchase",
	ProductActionRefund:             "Refund",
	ProductActionAddToWishlist:      "AddToWishlist",
	ProductActionRemoveFromWishlist: "RemoveFromWishlist",
	ProductActionAddToWallet:        "AddToWallet",
	ProductActionRemoveFromWallet:   "RemoveFromWallet",
}

var productActionWireNames = [...]string{
	ProductActionUnknown:            "unknown",
	ProductActionAddToCart:          "add_to_cart",
	ProductActionRemoveFromCart:     "remove_from_cart",
	ProductActionCheckout:           "checkout",
	ProductActionCheckoutOption:     "checkout_option",
	ProductActionClick:              "click",
	ProductActionViewDetail:         "view_detail",
	ProductActionPurchase:           "purchase",
	ProductActionRefund:             "refund",
	ProductActionAddToWishlist:      "add_to_wishlist",
	ProductActionRemoveFromWishlist: "remove_from_wishlist",
	ProductActionAddToWallet:        "add_to_wallet",
	ProductActionRemoveFromWallet:   "remove_from_wallet",
}

// Valid reports whether t is a member of the enumeration.
func (t ProductActionType) Valid() bool {
	return t >= ProductActionUnknown && int(t) < len(productActionNames)
}

// String returns the Go name, or "Invalid" for non-members.
func (t ProductActionType) String() string {
	if !t.Valid() {
		return "Invalid"
	}
	return productActionNames[t]
}

// WireName returns the `an` value, or "" for non-members.
func (t ProductActionType) WireName() string {
	if !t.Valid() {
		return ""
	}
	return productActionWireNames[t]
}

// IsTransaction reports whether the action carries transaction attributes.
func (t ProductActionType) IsTransaction() bool {
	return t == ProductActionPurchase || t == ProductActionRefund
}

// ParseProductActionType accepts either the Go name ("AddToCart") or the wire
// name ("add_to_cart"), case-insensitively.
func ParseProductActionType(raw string) (ProductActionType, bool) {
	raw = strings.TrimSpace(raw)
	for i := range productActionNames {
		if strings.EqualFold(raw, productActionNames[i]) || strings.EqualFold(raw, productActionWireNames[i]) {
			return ProductActionType(i), true
		}
	}
	return ProductActionUnknown, false
}

// PromotionActionType enumerates the supported promotion actions.
type PromotionActionType int

const (
	PromotionActionUnknown PromotionActionType = iota
	PromotionActionView
	PromotionActionClick
)

var promotionActionNames = [...]string{
	PromotionActionUnknown: "Unknown",
	PromotionActionView:    "PromotionView",
	PromotionActionClick:   "PromotionClick",
}

var promotionActionWireNames = [...]string{
	PromotionActionUnknown: "unknown",
	PromotionActionView:    "view",
	PromotionActionClick:   "click",
}

// Valid reports whether t is a member of the enumeration.
func (t PromotionActionType) Valid() bool {
	return t >= PromotionActionUnknown && int(t) < len(promotionActionNames)
}

// String returns the Go name, or "Invalid" for non-members.
func (t PromotionActionType) String() string {
	if !t.Valid() {
		return "Invalid"
	}
	return promotionActionNames[t]
}

// WireName returns the `an` value, or "" for non-members.
func (t PromotionActionType) WireName() string {
	if !t.Valid() {
		return ""
	}
	return promotionActionWireNames[t]
}

// ParsePromotionActionType accepts "PromotionView", "view", "PromotionClick",
// "click" or "Unknown", case-insensitively.
func ParsePromotionActionType(raw string) (PromotionActionType, bool) {
	raw = strings.TrimSpace(raw)
	for i := range promotionActionNames {
		if strings.EqualFold(raw, promotionActionNames[i]) || strings.EqualFold(raw, promotionActionWireNames[i]) {
			return PromotionActionType(i), true
		}
	}
	return PromotionActionUnknown, false
}

// CommerceEventType is the `et` value of a commerce message.
type CommerceEventType int

const (
	CommerceEventUnknown                   CommerceEventType = 0
	CommerceEventProductAddToCart          CommerceEventType = 10
	CommerceEventProductRemoveFromCart     CommerceEventType = 11
	CommerceEventProductCheckout           CommerceEventType = 12
	CommerceEventProductCheckoutOption     CommerceEventType = 13
	CommerceEventProductClick              CommerceEventType = 14
	CommerceEventProductViewDetail         CommerceEventType = 15
	CommerceEventProductPurchase           CommerceEventType = 16
	CommerceEventProductRefund             CommerceEventType = 17
	CommerceEventPromotionView             CommerceEventType = 18
	CommerceEventPromotionClick            CommerceEventType = 19
	CommerceEventProductAddToWishlist      CommerceEventType = 20
	CommerceEventProductRemoveFromWishlist CommerceEventType = 21
	CommerceEventProductImpression         CommerceEventType = 22
	CommerceEventProductAddToWallet        CommerceEventType = 23
	CommerceEventProductRemoveFromWallet   CommerceEventType = 24
)

// CommerceEventType maps a product action onto its message type.
func (t ProductActionType) CommerceEventType() CommerceEventType {
	switch t {
	case ProductActionAddToCart:
		return CommerceEventProductAddToCart
	case ProductActionRemoveFromCart:
		return CommerceEventProductRemoveFromCart
	case ProductActionCheckout:
		return CommerceEventProductCheckout
	case ProductActionCheckoutOption:
		return CommerceEventProductCheckoutOption
	case ProductActionClick:
		return CommerceEventProductClick
	case ProductActionViewDetail:
		return CommerceEventProductViewDetail
	case ProductActionPurchase:
		return CommerceEventProductPurchase
	case ProductActionRefund:
		return CommerceEventProductRefund
	case ProductActionAddToWishlist:
		return CommerceEventProductAddToWishlist
	case ProductActionRemoveFromWishlist:
		return CommerceEventProductRemoveFromWishlist
	case ProductActionAddToWallet:
		return CommerceEventProductAddToWallet
	case ProductActionRemoveFromWallet:
		return CommerceEventProductRemoveFromWallet
	default:
		return CommerceEventUnknown
	}
}

// CommerceEventType maps a promotion action onto its message type.
func (t PromotionActionType) CommerceEventType() CommerceEventType {
	switch t {
	case PromotionActionView:
		return CommerceEventPromotionView
	case PromotionActionClick:
		return CommerceEventPromotionClick
	default:
		return CommerceEventUnknown
	}
}

// EventType is the category of a discrete (non-commerce) event.
type EventType int

const (
	EventTypeUnknown EventType = iota
	EventTypeNavigation
	EventTypeLocation
	EventTypeSearch
	EventTypeTransaction
	EventTypeUserContent
	EventTypeUserPreference
	EventTypeSocial
	EventTypeOther
)
