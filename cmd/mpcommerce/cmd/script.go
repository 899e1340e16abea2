package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// Script is a YAML replay of commerce calls.
//
//	identity: customer-42
//	currency_code: USD
//	steps:
//	  - op: add_to_cart
//	    products: [{name: iPhone, sku: 12345, price: 400}]
//	  - op: purchase
//	    transaction: {id: TX-1, revenue: 450}
//	    products: [{name: iPhone, sku: 12345, price: 400}]
type Script struct {
	Identity     string `yaml:"identity"`
	CurrencyCode string `yaml:"currency_code"`
	Steps        []Step `yaml:"steps"`
}

// Step is one call. Op selects the call; the remaining fields are its
// arguments.
type Step struct {
	Op string `yaml:"op"`

	// Action names the product or promotion action type, by Go name
	// ("AddToWishlist") or wire name ("add_to_wishlist").
	Action string `yaml:"action"`

	Products    []ProductSpec    `yaml:"products"`
	Product     *ProductSpec     `yaml:"product"`
	Transaction *TransactionSpec `yaml:"transaction"`
	Promotions  []PromotionSpec  `yaml:"promotions"`
	Impressions []ImpressionSpec `yaml:"impressions"`

	Attributes     types.Attributes `yaml:"attributes"`
	Flags          map[string]any   `yaml:"flags"`
	CheckoutStep   any              `yaml:"checkout_step"`
	CheckoutOption any              `yaml:"checkout_option"`
	Upload         *bool            `yaml:"upload"`
	ClearCart      bool             `yaml:"clear_cart"`

	// Log makes cart operations emit their AddToCart/RemoveFromCart event.
	Log bool `yaml:"log"`

	// Value is the argument of set_identity and set_currency.
	Value string `yaml:"value"`
}

// ProductSpec is the YAML form of CreateProduct's arguments.
type ProductSpec struct {
	Name       string           `yaml:"name"`
	Sku        any              `yaml:"sku"`
	Price      any              `yaml:"price"`
	Quantity   any              `yaml:"quantity"`
	Variant    string           `yaml:"variant"`
	Category   string           `yaml:"category"`
	Brand      string           `yaml:"brand"`
	Position   any              `yaml:"position"`
	CouponCode string           `yaml:"coupon_code"`
	Attributes types.Attributes `yaml:"attributes"`
}

// TransactionSpec is the YAML form of CreateTransactionAttributes' arguments.
type TransactionSpec struct {
	ID          any    `yaml:"id"`
	Affiliation string `yaml:"affiliation"`
	CouponCode  string `yaml:"coupon_code"`
	Revenue     any    `yaml:"revenue"`
	Shipping    any    `yaml:"shipping"`
	Tax         any    `yaml:"tax"`
}

// PromotionSpec is the YAML form of CreatePromotion's arguments.
type PromotionSpec struct {
	ID       any    `yaml:"id"`
	Creative string `yaml:"creative"`
	Name     string `yaml:"name"`
	Position any    `yaml:"position"`
}

// ImpressionSpec is the YAML form of CreateImpression's arguments.
type ImpressionSpec struct {
	Name     string        `yaml:"name"`
	Products []ProductSpec `yaml:"products"`
}

// LoadScript reads and parses a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript parses a script. Unknown keys are rejected.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	return &s, nil
}

// capturingDispatcher records every dispatched event before handing it on.
type capturingDispatcher struct {
	next   ecommerce.Dispatcher
	events []*types.CommerceEvent
}

func (d *capturingDispatcher) Dispatch(ctx context.Context, event *types.CommerceEvent) error {
	d.events = append(d.events, event)
	if d.next == nil {
		return nil
	}
	return d.next.Dispatch(ctx, event)
}

// drain returns and forgets the captured events.
func (d *capturingDispatcher) drain() []*types.CommerceEvent {
	events := d.events
	d.events = nil
	return events
}

// replay runs the steps of s through a. Events are passed to emit as they
// are produced, including those of a step that then fails. Replay stops at
// the first failing step.
func replay(ctx context.Context, s *Script, a *ecommerce.Assembler, captured *capturingDispatcher, emit func(*types.CommerceEvent) error) error {
	if s.Identity != "" {
		a.Session().SetIdentity(s.Identity)
	}
	if s.CurrencyCode != "" {
		a.Session().SetCurrencyCode(s.CurrencyCode)
	}

	for i, step := range s.Steps {
		stepErr := runStep(ctx, a, step)
		for _, event := range captured.drain() {
			if err := emit(event); err != nil {
				return err
			}
		}
		if stepErr != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, stepErr)
		}
	}
	return nil
}

func runStep(ctx context.Context, a *ecommerce.Assembler, step Step) error {
	opts := ecommerce.LogOptions{
		Attributes:        step.Attributes,
		CustomFlags:       step.Flags,
		CheckoutStep:      step.CheckoutStep,
		CheckoutOption:    step.CheckoutOption,
		ShouldUploadEvent: step.Upload,
		ClearCart:         step.ClearCart,
	}

	switch step.Op {
	case "set_identity":
		a.Session().SetIdentity(step.Value)
		return nil
	case "set_currency":
		a.Session().SetCurrencyCode(step.Value)
		return nil

	case "add_to_cart":
		products, err := buildProducts(step.Products)
		if err != nil {
			return err
		}
		return a.Cart().Add(ctx, products, step.Log)
	case "remove_from_cart":
		if step.Product == nil {
			return fmt.Errorf("remove_from_cart needs a product")
		}
		product, err := step.Product.build()
		if err != nil {
			return err
		}
		return a.Cart().Remove(ctx, product, step.Log)
	case "clear_cart":
		return a.Cart().Clear(ctx)

	case "product_action":
		actionType, ok := types.ParseProductActionType(step.Action)
		if !ok {
			return fmt.Errorf("%w: product action %q", types.ErrInvalidActionType, step.Action)
		}
		products, err := buildProducts(step.Products)
		if err != nil {
			return err
		}
		if actionType.IsTransaction() {
			if opts.TransactionAttributes, err = step.Transaction.build(); err != nil {
				return err
			}
		}
		_, err = a.LogProductAction(ctx, actionType, products, opts)
		return err
	case "purchase", "refund":
		ta, err := step.Transaction.build()
		if err != nil {
			return err
		}
		products, err := buildProducts(step.Products)
		if err != nil {
			return err
		}
		if step.Op == "purchase" {
			_, err = a.LogPurchase(ctx, ta, products, opts)
		} else {
			_, err = a.LogRefund(ctx, ta, products, opts)
		}
		return err
	case "checkout":
		_, err := a.LogCheckout(ctx, step.CheckoutStep, step.CheckoutOption, opts)
		return err

	case "promotion":
		actionType, ok := types.ParsePromotionActionType(step.Action)
		if !ok {
			return fmt.Errorf("%w: promotion action %q", types.ErrInvalidActionType, step.Action)
		}
		promotions := make([]*types.Promotion, 0, len(step.Promotions))
		for _, spec := range step.Promotions {
			p, err := ecommerce.CreatePromotion(spec.ID, spec.Creative, spec.Name, spec.Position)
			if err != nil {
				return err
			}
			promotions = append(promotions, p)
		}
		_, err := a.LogPromotion(ctx, actionType, promotions, opts)
		return err
	case "impression":
		impressions := make([]*types.Impression, 0, len(step.Impressions))
		for _, spec := range step.Impressions {
			products, err := buildProducts(spec.Products)
			if err != nil {
				return err
			}
			imp, err := ecommerce.CreateImpression(spec.Name, products...)
			if err != nil {
				return err
			}
			impressions = append(impressions, imp)
		}
		_, err := a.LogImpression(ctx, impressions, opts)
		return err

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func buildProducts(specs []ProductSpec) ([]*types.Product, error) {
	products := make([]*types.Product, 0, len(specs))
	for _, spec := range specs {
		p, err := spec.build()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (s ProductSpec) build() (*types.Product, error) {
	return ecommerce.CreateProduct(s.Name, s.Sku, s.Price, ecommerce.ProductOptions{
		Quantity:   s.Quantity,
		Variant:    s.Variant,
		Category:   s.Category,
		Brand:      s.Brand,
		Position:   s.Position,
		CouponCode: s.CouponCode,
		Attributes: s.Attributes,
	})
}

// build returns nil for a step without a transaction block.
func (s *TransactionSpec) build() (*types.TransactionAttributes, error) {
	if s == nil {
		return nil, nil
	}
	return ecommerce.CreateTransactionAttributes(s.ID, ecommerce.TransactionOptions{
		Affiliation: s.Affiliation,
		CouponCode:  s.CouponCode,
		Revenue:     s.Revenue,
		Shipping:    s.Shipping,
		Tax:         s.Tax,
	})
}
