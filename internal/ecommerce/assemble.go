package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// Attribute keys used to fold checkout details into event attributes.
const (
	AttrCheckoutStep    = "Checkout Step"
	AttrCheckoutOptions = "Checkout Options"
)

// Transport uploads a serialized event to a collection endpoint.
type Transport interface {
	Upload(ctx context.Context, event *WireEvent) error
}

// Dispatcher hands an assembled event to local forwarders. It runs for every
// event, including those with ShouldUpload false.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *types.CommerceEvent) error
}

// LogOptions carries the optional arguments of the Log* methods.
type LogOptions struct {
	Attributes  types.Attributes
	CustomFlags map[string]any

	// TransactionAttributes is applied for Purchase and Refund only.
	TransactionAttributes *types.TransactionAttributes

	// CheckoutStep and CheckoutOption are applied for Checkout and
	// CheckoutOption and folded into the event attributes.
	CheckoutStep   any
	CheckoutOption any

	// ShouldUploadEvent defaults to true when nil.
	ShouldUploadEvent *bool

	// ClearCart empties the cart after a Purchase is assembled.
	ClearCart bool
}

// AssemblerDeps holds the collaborators of an Assembler. Every field is
// optional.
type AssemblerDeps struct {
	Session     *Session
	Storage     CartPersistence
	MaxProducts int
	Transport   Transport
	Dispatcher  Dispatcher
	Logger      *zap.Logger
}

// Assembler validates log calls, sanitizes their numeric fields and produces
// CommerceEvents. Each produced event is handed to the Dispatcher and, unless
// suppressed, uploaded through the Transport.
//
// Structural failures (unknown action type, no entities, an entity that fails
// the builder checks) return a nil event and an error, and nothing is
// dispatched. Collaborator failures (cart
// storage, dispatch, upload) are joined into the returned error while the
// event is still returned.
type Assembler struct {
	session    *Session
	cart       *Cart
	transport  Transport
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewAssembler wires an Assembler and its Cart.
func NewAssembler(deps AssemblerDeps) *Assembler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	session := deps.Session
	if session == nil {
		session = NewSession(logger)
	}
	storage := deps.Storage
	if storage == nil {
		storage = NewMemoryCartStorage()
	}
	maxProducts := deps.MaxProducts
	if maxProducts <= 0 {
		maxProducts = DefaultMaxProducts
	}

	a := &Assembler{
		session:    session,
		transport:  deps.Transport,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
	a.cart = &Cart{
		session:     session,
		store:       storage,
		maxProducts: maxProducts,
		assembler:   a,
		logger:      logger,
	}
	return a
}

// Session returns the session shared with the cart.
func (a *Assembler) Session() *Session { return a.session }

// Cart returns the cart of the current identity.
func (a *Assembler) Cart() *Cart { return a.cart }

// LogProductAction assembles a product-action event. AddToCart and
// RemoveFromCart also update the cart, whether or not the event is uploaded.
func (a *Assembler) LogProductAction(ctx context.Context, actionType types.ProductActionType, products []*types.Product, opts LogOptions) (*types.CommerceEvent, error) {
	return a.logProductAction(ctx, actionType, products, opts, false)
}

// LogPurchase is LogProductAction for ProductActionPurchase with the given
// transaction attributes. Set opts.ClearCart to empty the cart afterwards.
func (a *Assembler) LogPurchase(ctx context.Context, ta *types.TransactionAttributes, products []*types.Product, opts LogOptions) (*types.CommerceEvent, error) {
	opts.TransactionAttributes = ta
	return a.logProductAction(ctx, types.ProductActionPurchase, products, opts, false)
}

// LogRefund is LogProductAction for ProductActionRefund.
func (a *Assembler) LogRefund(ctx context.Context, ta *types.TransactionAttributes, products []*types.Product, opts LogOptions) (*types.CommerceEvent, error) {
	opts.TransactionAttributes = ta
	return a.logProductAction(ctx, types.ProductActionRefund, products, opts, false)
}

// LogCheckout assembles a Checkout event for the current cart contents. An
// empty cart still produces an event carrying the step.
//
// Deprecated: use LogProductAction with ProductActionCheckout.
func (a *Assembler) LogCheckout(ctx context.Context, step, option any, opts LogOptions) (*types.CommerceEvent, error) {
	a.logger.Warn("LogCheckout is deprecated, please use LogProductAction instead")

	products, err := a.cart.Products(ctx)
	if err != nil {
		return nil, err
	}
	opts.CheckoutStep = step
	opts.CheckoutOption = option
	event := a.newEvent(opts)
	event.Kind = types.EventKindProductAction
	event.EventName = eventName(types.ProductActionCheckout.String())
	event.EventType = types.ProductActionCheckout.CommerceEventType()
	event.ProductAction = &types.ProductAction{
		ActionType: types.ProductActionCheckout,
		Products:   a.sanitizeProducts(products),
	}
	a.applyCheckout(event, opts)
	return event, a.emit(ctx, event)
}

// LogPromotion assembles a promotion-action event.
func (a *Assembler) LogPromotion(ctx context.Context, actionType types.PromotionActionType, promotions []*types.Promotion, opts LogOptions) (*types.CommerceEvent, error) {
	if !actionType.Valid() {
		a.logger.Warn("promotion action type is not valid", zap.Int("action_type", int(actionType)))
		return nil, fmt.Errorf("%w: promotion action %d", types.ErrInvalidActionType, int(actionType))
	}
	items := make([]types.PromotionItem, 0, len(promotions))
	for _, p := range promotions {
		if p == nil {
			continue
		}
		if err := validatePromotion(p); err != nil {
			return nil, err
		}
		items = append(items, types.PromotionItem{
			ID:       p.ID,
			Creative: p.Creative,
			Name:     p.Name,
			Position: a.sanitizeField(p.Position, FieldPosition, 0),
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no promotions", types.ErrNoEntities)
	}

	event := a.newEvent(opts)
	event.Kind = types.EventKindPromotionAction
	event.EventName = eventName(actionType.String())
	event.EventType = actionType.CommerceEventType()
	event.PromotionAction = &types.PromotionAction{ActionType: actionType, Promotions: items}
	return event, a.emit(ctx, event)
}

// LogImpression assembles an impression event with one block per impression.
func (a *Assembler) LogImpression(ctx context.Context, impressions []*types.Impression, opts LogOptions) (*types.CommerceEvent, error) {
	blocks := make([]types.ImpressionBlock, 0, len(impressions))
	for _, imp := range impressions {
		if imp == nil {
			continue
		}
		if err := validateImpression(imp); err != nil {
			return nil, err
		}
		blocks = append(blocks, types.ImpressionBlock{
			Name:     imp.Name,
			Products: a.sanitizeProducts(imp.Products),
		})
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no impressions", types.ErrNoEntities)
	}

	event := a.newEvent(opts)
	event.Kind = types.EventKindImpression
	event.EventName = eventName("Impression")
	event.EventType = types.CommerceEventProductImpression
	event.Impressions = blocks
	return event, a.emit(ctx, event)
}

// logProductAction is shared by the public Log* methods and the cart. fromCart
// suppresses the cart side effect when the cart itself initiated the log.
func (a *Assembler) logProductAction(ctx context.Context, actionType types.ProductActionType, products []*types.Product, opts LogOptions, fromCart bool) (*types.CommerceEvent, error) {
	if !actionType.Valid() {
		a.logger.Warn("product action type is not valid", zap.Int("action_type", int(actionType)))
		return nil, fmt.Errorf("%w: product action %d", types.ErrInvalidActionType, int(actionType))
	}
	products = compactProducts(products)
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no products", types.ErrNoEntities)
	}
	for i, p := range products {
		if err := validateProduct(p); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
	}
	if ta := opts.TransactionAttributes; actionType.IsTransaction() && ta != nil && !isIdentifier(ta.ID) {
		return nil, fmt.Errorf("%w: id must be a string or a number, got %T", types.ErrInvalidTransactionAttributes, ta.ID)
	}

	event := a.newEvent(opts)
	event.Kind = types.EventKindProductAction
	event.EventName = eventName(actionType.String())
	event.EventType = actionType.CommerceEventType()
	pa := &types.ProductAction{
		ActionType: actionType,
		Products:   a.sanitizeProducts(products),
	}
	event.ProductAction = pa
	if actionType.IsTransaction() && opts.TransactionAttributes != nil {
		a.applyTransaction(pa, opts.TransactionAttributes)
	}
	if actionType == types.ProductActionCheckout || actionType == types.ProductActionCheckoutOption {
		a.applyCheckout(event, opts)
	}

	var errs []error
	if !fromCart {
		switch actionType {
		case types.ProductActionAddToCart:
			errs = append(errs, a.cart.add(ctx, products))
		case types.ProductActionRemoveFromCart:
			_, err := a.cart.remove(ctx, products)
			errs = append(errs, err)
		}
	}
	if actionType == types.ProductActionPurchase && opts.ClearCart {
		errs = append(errs, a.cart.clear(ctx))
	}
	errs = append(errs, a.emit(ctx, event))
	return event, errors.Join(errs...)
}

func (a *Assembler) newEvent(opts LogOptions) *types.CommerceEvent {
	attrs := types.Attributes{}
	maps.Copy(attrs, opts.Attributes)
	flags := map[string]any{}
	maps.Copy(flags, opts.CustomFlags)
	return &types.CommerceEvent{
		ID:           types.NewEventID(),
		CurrencyCode: a.session.CurrencyCode(),
		Attributes:   attrs,
		CustomFlags:  flags,
		ShouldUpload: opts.ShouldUploadEvent == nil || *opts.ShouldUploadEvent,
	}
}

func (a *Assembler) applyTransaction(pa *types.ProductAction, ta *types.TransactionAttributes) {
	pa.HasTransaction = true
	pa.TransactionID = ta.ID
	pa.Affiliation = ta.Affiliation
	pa.CouponCode = ta.CouponCode
	pa.TotalAmount = a.sanitizeField(ta.Revenue, FieldTotalAmount, 0)
	pa.ShippingAmount = a.sanitizeField(ta.Shipping, FieldShippingAmount, 0)
	pa.TaxAmount = a.sanitizeField(ta.Tax, FieldTaxAmount, 0)
}

// applyCheckout records the step and option on the product action and folds
// them into the event attributes.
func (a *Assembler) applyCheckout(event *types.CommerceEvent, opts LogOptions) {
	pa := event.ProductAction
	if opts.CheckoutStep != nil {
		pa.CheckoutStep = opts.CheckoutStep
		event.Attributes[AttrCheckoutStep] = opts.CheckoutStep
	}
	if opts.CheckoutOption != nil {
		pa.CheckoutOptions = opts.CheckoutOption
		event.Attributes[AttrCheckoutOptions] = opts.CheckoutOption
	}
}

func (a *Assembler) sanitizeProducts(products []*types.Product) []types.ProductItem {
	items := make([]types.ProductItem, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		price := a.sanitizeField(p.Price, FieldPrice, 0)
		quantity := a.sanitizeField(p.Quantity, FieldQuantity, 1)
		total := price * quantity
		if math.IsInf(total, 0) || math.IsNaN(total) {
			total = 0
		}
		items = append(items, types.ProductItem{
			Name:        p.Name,
			Sku:         p.Sku,
			Price:       price,
			Quantity:    quantity,
			Variant:     p.Variant,
			Category:    p.Category,
			Brand:       p.Brand,
			Position:    a.sanitizeField(p.Position, FieldPosition, 0),
			CouponCode:  p.CouponCode,
			TotalAmount: total,
			Attributes:  maps.Clone(p.Attributes),
		})
	}
	return items
}

// sanitizeField applies Sanitize, substituting def for an absent value and
// warning when present content had to be coerced to 0.
func (a *Assembler) sanitizeField(value any, kind FieldKind, def float64) float64 {
	if value == nil {
		return def
	}
	f, ok := sanitize(value)
	if !ok {
		a.logger.Warn(kind.String()+" must be a finite number, converting to 0",
			zap.Stringer("field", kind),
			zap.Any("value", value))
	}
	return f
}

func (a *Assembler) emit(ctx context.Context, event *types.CommerceEvent) error {
	var errs []error
	if a.dispatcher != nil {
		if err := a.dispatcher.Dispatch(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("dispatch: %w", err))
		}
	}
	if event.ShouldUpload && a.transport != nil {
		if err := a.transport.Upload(ctx, Serialize(event)); err != nil {
			errs = append(errs, fmt.Errorf("upload: %w", err))
		}
	}
	return errors.Join(errs...)
}

func eventName(suffix string) string {
	return "eCommerce - " + suffix
}
