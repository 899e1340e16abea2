// Package types provides the commerce domain model shared by the builders,
// the assembler, the wire serializer and the fan-out expander.
//
// Entity types (Product, TransactionAttributes, Promotion, Impression) hold
// caller input exactly as validated by the builders: numeric fields keep their
// raw value and are sanitized once, at assembly time. Canonical types
// (ProductItem, ProductAction, CommerceEvent) only ever carry finite numbers.
//
// Zero-dependency design: everything except ids.go uses the standard library
// only so forwarders can depend on this package without pulling in storage or
// transport code.
package types

// Attributes is a free-form string-keyed attribute map attached to products
// and events.
type Attributes map[string]any

// Product describes one product as supplied by the caller.
// Sku and Price are string or number; Quantity and Position may be any value
// and are sanitized during assembly.
type Product struct {
	Name       string     `json:"Name"`
	Sku        any        `json:"Sku"`
	Price      any        `json:"Price"`
	Quantity   any        `json:"Quantity,omitempty"`
	Variant    string     `json:"Variant,omitempty"`
	Category   string     `json:"Category,omitempty"`
	Brand      string     `json:"Brand,omitempty"`
	Position   any        `json:"Position,omitempty"`
	CouponCode string     `json:"CouponCode,omitempty"`
	Attributes Attributes `json:"Attributes,omitempty"`
}

// TransactionAttributes carries the transaction block of a purchase or refund.
// Nil Revenue/Shipping/Tax mean "absent" and are treated as 0 downstream.
type TransactionAttributes struct {
	ID          any    `json:"Id"`
	Affiliation string `json:"Affiliation,omitempty"`
	CouponCode  string `json:"CouponCode,omitempty"`
	Revenue     any    `json:"Revenue,omitempty"`
	Shipping    any    `json:"Shipping,omitempty"`
	Tax         any    `json:"Tax,omitempty"`
}

// Promotion describes an internal promotion (banner, creative, ...).
type Promotion struct {
	ID       any    `json:"Id"`
	Creative string `json:"Creative"`
	Name     string `json:"Name"`
	Position any    `json:"Position,omitempty"`
}

// Impression groups the products shown in one named list.
type Impression struct {
	Name     string     `json:"Name"`
	Products []*Product `json:"Product"`
}
