package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// DefaultMaxProducts is the cart capacity used when none is configured.
const DefaultMaxProducts = 20

// CartPersistence stores one ordered product list per identity.
// ReadCart returns an empty list, not an error, for an identity that has never
// been written.
type CartPersistence interface {
	ReadCart(ctx context.Context, identity string) ([]*types.Product, error)
	WriteCart(ctx context.Context, identity string, products []*types.Product) error
}

// MemoryCartStorage is the in-process CartPersistence. Its contents are lost
// when the process exits.
type MemoryCartStorage struct {
	mu    sync.Mutex
	carts map[string][]*types.Product
}

// NewMemoryCartStorage returns an empty in-memory store.
func NewMemoryCartStorage() *MemoryCartStorage {
	return &MemoryCartStorage{carts: make(map[string][]*types.Product)}
}

func (m *MemoryCartStorage) ReadCart(_ context.Context, identity string) ([]*types.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.carts[identity]), nil
}

func (m *MemoryCartStorage) WriteCart(_ context.Context, identity string, products []*types.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[identity] = slices.Clone(products)
	return nil
}

// Cart is the per-identity shopping cart. It is bounded to maxProducts
// entries; adding past the bound evicts the oldest entries first.
//
// Add, Remove and Clear are the deprecated direct API and log a deprecation
// warning on every call. The assembler mutates the cart through the
// unexported add/remove/clear when it logs AddToCart, RemoveFromCart or a
// purchase with ClearCart set.
type Cart struct {
	session     *Session
	store       CartPersistence
	maxProducts int
	assembler   *Assembler
	logger      *zap.Logger
}

func deprecated(logger *zap.Logger, name string) {
	logger.Warn(fmt.Sprintf("Deprecated function %s will be removed in future releases", name))
}

// Add appends products to the current identity's cart. When shouldLog is
// true an AddToCart event is also assembled for them.
//
// Deprecated: log ProductActionAddToCart through the Assembler instead.
func (c *Cart) Add(ctx context.Context, products []*types.Product, shouldLog bool) error {
	deprecated(c.logger, "Cart.Add()")

	products = compactProducts(products)
	if len(products) == 0 {
		return types.ErrNoEntities
	}
	var errs []error
	if err := c.add(ctx, products); err != nil {
		errs = append(errs, err)
	}
	if shouldLog {
		if _, err := c.assembler.logProductAction(ctx, types.ProductActionAddToCart, products, LogOptions{}, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove deletes the first cart entry whose sku equals product's sku. Absent
// products are a silent no-op. When shouldLog is true a RemoveFromCart event
// is assembled for the removed entry, or for product itself when nothing
// matched; a partial product then fails validation and the error is returned.
//
// Deprecated: log ProductActionRemoveFromCart through the Assembler instead.
func (c *Cart) Remove(ctx context.Context, product *types.Product, shouldLog bool) error {
	deprecated(c.logger, "Cart.Remove()")

	if product == nil {
		return types.ErrNoEntities
	}
	var errs []error
	removed, err := c.remove(ctx, []*types.Product{product})
	if err != nil {
		errs = append(errs, err)
	}
	if shouldLog {
		logged := removed
		if len(logged) == 0 {
			logged = []*types.Product{product}
		}
		if _, err := c.assembler.logProductAction(ctx, types.ProductActionRemoveFromCart, logged, LogOptions{}, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear empties the current identity's cart.
//
// Deprecated: pass ClearCart to LogPurchase instead.
func (c *Cart) Clear(ctx context.Context) error {
	deprecated(c.logger, "Cart.Clear()")
	return c.clear(ctx)
}

// Products returns a copy of the current identity's cart, oldest first.
func (c *Cart) Products(ctx context.Context) ([]*types.Product, error) {
	products, err := c.store.ReadCart(ctx, c.session.Identity())
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return products, nil
}

func (c *Cart) add(ctx context.Context, products []*types.Product) error {
	identity := c.session.Identity()
	current, err := c.store.ReadCart(ctx, identity)
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}
	for _, p := range products {
		current = append(current, cloneProduct(p))
	}
	if over := len(current) - c.maxProducts; over > 0 {
		c.logger.Debug("cart full, evicting oldest products",
			zap.String("identity", identity),
			zap.Int("evicted", over))
		current = current[over:]
	}
	if err := c.store.WriteCart(ctx, identity, current); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

// remove deletes the first match for each product and returns the removed
// entries.
func (c *Cart) remove(ctx context.Context, products []*types.Product) ([]*types.Product, error) {
	identity := c.session.Identity()
	current, err := c.store.ReadCart(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	var removed []*types.Product
	for _, p := range products {
		i := slices.IndexFunc(current, func(item *types.Product) bool {
			return sameSku(item.Sku, p.Sku)
		})
		if i < 0 {
			continue
		}
		removed = append(removed, current[i])
		current = slices.Delete(current, i, i+1)
	}
	if err := c.store.WriteCart(ctx, identity, current); err != nil {
		return removed, fmt.Errorf("write cart: %w", err)
	}
	return removed, nil
}

func (c *Cart) clear(ctx context.Context) error {
	if err := c.store.WriteCart(ctx, c.session.Identity(), nil); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

// sameSku compares skus by their text form so that a numeric sku still
// matches after a round trip through JSON storage.
func sameSku(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return stringify(a) == stringify(b)
}

// cloneProduct copies p for storage. Non-finite floats become 0 so the cart
// stays JSON-encodable.
func cloneProduct(p *types.Product) *types.Product {
	cp := *p
	cp.Sku = finiteOrZero(p.Sku)
	cp.Price = finiteOrZero(p.Price)
	cp.Quantity = finiteOrZero(p.Quantity)
	cp.Position = finiteOrZero(p.Position)
	if p.Attributes != nil {
		cp.Attributes = make(types.Attributes, len(p.Attributes))
		for k, v := range p.Attributes {
			cp.Attributes[k] = finiteOrZero(v)
		}
	}
	return &cp
}

func finiteOrZero(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return 0
		}
	}
	return v
}

func compactProducts(products []*types.Product) []*types.Product {
	out := make([]*types.Product, 0, len(products))
	for _, p := range products {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
