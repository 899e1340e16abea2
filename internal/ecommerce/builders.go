package ecommerce

import (
	"fmt"
	"maps"
	"math"
	"strings"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// ProductOptions holds the optional product fields. Quantity defaults to 1
// and Position to 0 when nil; neither is sanitized until assembly.
type ProductOptions struct {
	Quantity   any
	Variant    string
	Category   string
	Brand      string
	Position   any
	CouponCode string
	Attributes types.Attributes
}

// TransactionOptions holds the optional transaction fields. Nil amounts stay
// absent on the entity.
type TransactionOptions struct {
	Affiliation string
	CouponCode  string
	Revenue     any
	Shipping    any
	Tax         any
}

// CreateProduct validates the argument types and builds a Product.
// Returns ErrInvalidProduct when name is empty or sku/price is not a string
// or number.
func CreateProduct(name string, sku, price any, opts ProductOptions) (*types.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name must be a non-empty string", types.ErrInvalidProduct)
	}
	if !isIdentifier(sku) {
		return nil, fmt.Errorf("%w: sku must be a string or a number, got %T", types.ErrInvalidProduct, sku)
	}
	if !isNumberLike(price) {
		return nil, fmt.Errorf("%w: price must be a string or a number, got %T", types.ErrInvalidProduct, price)
	}

	quantity := opts.Quantity
	if quantity == nil {
		quantity = 1
	}
	position := opts.Position
	if position == nil {
		position = 0
	}
	attrs := types.Attributes{}
	maps.Copy(attrs, opts.Attributes)

	return &types.Product{
		Name:       name,
		Sku:        sku,
		Price:      price,
		Quantity:   quantity,
		Variant:    opts.Variant,
		Category:   opts.Category,
		Brand:      opts.Brand,
		Position:   position,
		CouponCode: opts.CouponCode,
		Attributes: attrs,
	}, nil
}

// CreateTransactionAttributes builds the transaction block of a purchase or
// refund. Only id is required.
func CreateTransactionAttributes(id any, opts TransactionOptions) (*types.TransactionAttributes, error) {
	if !isIdentifier(id) {
		return nil, fmt.Errorf("%w: id must be a string or a number, got %T", types.ErrInvalidTransactionAttributes, id)
	}
	return &types.TransactionAttributes{
		ID:          id,
		Affiliation: opts.Affiliation,
		CouponCode:  opts.CouponCode,
		Revenue:     opts.Revenue,
		Shipping:    opts.Shipping,
		Tax:         opts.Tax,
	}, nil
}

// CreatePromotion builds a Promotion; id, creative and name are required.
func CreatePromotion(id any, creative, name string, position any) (*types.Promotion, error) {
	if position == nil {
		position = 0
	}
	p := &types.Promotion{ID: id, Creative: creative, Name: name, Position: position}
	if err := validatePromotion(p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateImpression builds an Impression from a list name and one or more
// products. Every product must itself be a valid Product.
func CreateImpression(name string, products ...*types.Product) (*types.Impression, error) {
	imp := &types.Impression{Name: name, Products: append([]*types.Product(nil), products...)}
	if err := validateImpression(imp); err != nil {
		return nil, err
	}
	return imp, nil
}

// validateProduct re-applies the builder checks to a product that may have
// been built by hand or loaded from storage.
func validateProduct(p *types.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product is nil", types.ErrInvalidProduct)
	}
	if strings.TrimSpace(p.Name) == "" || !isIdentifier(p.Sku) || !isNumberLike(p.Price) {
		return types.ErrInvalidProduct
	}
	return nil
}

func validatePromotion(p *types.Promotion) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: promotion is nil", types.ErrInvalidPromotion)
	case !isIdentifier(p.ID):
		return fmt.Errorf("%w: id must be a string or a number, got %T", types.ErrInvalidPromotion, p.ID)
	case strings.TrimSpace(p.Creative) == "":
		return fmt.Errorf("%w: creative is required", types.ErrInvalidPromotion)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", types.ErrInvalidPromotion)
	}
	return nil
}

func validateImpression(imp *types.Impression) error {
	switch {
	case imp == nil:
		return fmt.Errorf("%w: impression is nil", types.ErrInvalidImpression)
	case strings.TrimSpace(imp.Name) == "":
		return fmt.Errorf("%w: name is required", types.ErrInvalidImpression)
	case len(imp.Products) == 0:
		return fmt.Errorf("%w: at least one product is required", types.ErrInvalidImpression)
	}
	for i, p := range imp.Products {
		if err := validateProduct(p); err != nil {
			return fmt.Errorf("%w: product %d: %v", types.ErrInvalidImpression, i, err)
		}
	}
	return nil
}

// isIdentifier accepts non-empty strings and finite numbers.
func isIdentifier(v any) bool {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id) != ""
	case float64:
		return !math.IsNaN(id) && !math.IsInf(id, 0)
	case float32:
		return !math.IsNaN(float64(id)) && !math.IsInf(float64(id), 0)
	}
	return isNumberLike(v)
}
