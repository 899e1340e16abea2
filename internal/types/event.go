package types

// EventKind tags which variant of CommerceEvent is populated.
type EventKind int

const (
	EventKindProductAction EventKind = iota + 1
	EventKindPromotionAction
	EventKindImpression
)

// ProductItem is a sanitized product: all numeric fields are finite.
type ProductItem struct {
	Name        string
	Sku         any
	Price       float64
	Quantity    float64
	Variant     string
	Category    string
	Brand       string
	Position    float64
	CouponCode  string
	TotalAmount float64 // Price * Quantity
	Attributes  Attributes
}

// ProductAction is the canonical product-action variant.
type ProductAction struct {
	ActionType ProductActionType
	Products   []ProductItem

	// Transaction block, populated for Purchase and Refund only.
	// HasTransaction distinguishes an empty block from no block at all.
	HasTransaction bool
	TransactionID  any
	Affiliation    string
	CouponCode     string
	TotalAmount    float64
	ShippingAmount float64
	TaxAmount      float64

	CheckoutStep    any
	CheckoutOptions any
}

// PromotionItem is a sanitized promotion.
type PromotionItem struct {
	ID       any
	Creative string
	Name     string
	Position float64
}

// PromotionAction is the canonical promotion-action variant.
type PromotionAction struct {
	ActionType PromotionActionType
	Promotions []PromotionItem
}

// ImpressionBlock is one named list of sanitized products.
type ImpressionBlock struct {
	Name     string
	Products []ProductItem
}

// CommerceEvent is one assembled commerce interaction. Exactly one of
// ProductAction, PromotionAction or Impressions is set, as indicated by Kind.
type CommerceEvent struct {
	ID            EventID
	Kind          EventKind
	EventName     string
	EventType     CommerceEventType
	CurrencyCode  string
	Attributes    Attributes
	CustomFlags   map[string]any
	ShouldUpload  bool
	ProductAction *ProductAction

	PromotionAction *PromotionAction
	Impressions     []ImpressionBlock
}

// LegacyEvent is a flat, named event produced by fan-out expansion for
// forwarders that predate commerce events.
type LegacyEvent struct {
	EventName       string     `json:"EventName"`
	EventCategory   EventType  `json:"EventCategory"`
	EventAttributes Attributes `json:"EventAttributes"`
}
