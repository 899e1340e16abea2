package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

type failingStorage struct{ err error }

func (f failingStorage) ReadCart(context.Context, string) ([]*types.Product, error) {
	return nil, f.err
}

func (f failingStorage) WriteCart(context.Context, string, []*types.Product) error {
	return f.err
}

func TestCart_AddEvictsOldestFirst(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	cart := f.assembler.Cart()

	for i := 0; i < 11; i++ {
		p := mustProduct(t, fmt.Sprintf("product %d", i), fmt.Sprintf("sku-%d", i), 10, ProductOptions{})
		if err := cart.Add(ctx, []*types.Product{p}, false); err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
	}

	products, err := cart.Products(ctx)
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(products) != 10 {
		t.Fatalf("len = %d, want 10", len(products))
	}
	if products[0].Sku != "sku-1" {
		t.Errorf("oldest = %v, want sku-1", products[0].Sku)
	}
	if products[9].Sku != "sku-10" {
		t.Errorf("newest = %v, want sku-10", products[9].Sku)
	}
}

func TestCart_AddDoesNotDeduplicate(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := mustProduct(t, "iPhone", "12345", 400, ProductOptions{})

	f.assembler.Cart().Add(ctx, []*types.Product{p, p}, false)
	products, _ := f.assembler.Cart().Products(ctx)
	if len(products) != 2 {
		t.Errorf("len = %d, want 2", len(products))
	}
}

func TestCart_RemoveFirstMatchOnly(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	cart := f.assembler.Cart()

	a := mustProduct(t, "iPhone", "12345", 400, ProductOptions{Variant: "first"})
	b := mustProduct(t, "iPhone", "12345", 400, ProductOptions{Variant: "second"})
	c := mustProduct(t, "iPad", "67890", 600, ProductOptions{})
	cart.Add(ctx, []*types.Product{a, b, c}, false)

	if err := cart.Remove(ctx, &types.Product{Sku: "12345"}, false); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	products, _ := cart.Products(ctx)
	if len(products) != 2 || products[0].Variant != "second" {
		t.Errorf("cart = %+v, want second and iPad", products)
	}

	if err := cart.Remove(ctx, &types.Product{Sku: "missing"}, false); err != nil {
		t.Errorf("Remove(missing) error = %v, want nil", err)
	}
	if products, _ := cart.Products(ctx); len(products) != 2 {
		t.Errorf("len after no-op remove = %d, want 2", len(products))
	}
}

func TestCart_RemoveMatchesNumericSkuAfterRoundTrip(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	cart := f.assembler.Cart()

	stored := &types.Product{Name: "iPhone", Sku: json.Number("12345"), Price: 400}
	cart.Add(ctx, []*types.Product{stored}, false)
	if err := cart.Remove(ctx, &types.Product{Sku: 12345}, false); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if products, _ := cart.Products(ctx); len(products) != 0 {
		t.Errorf("len = %d, want 0", len(products))
	}
}

func TestCart_ShouldLogRoutesThroughAssembler(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	cart := f.assembler.Cart()
	p := mustProduct(t, "iPhone", "12345", 400, ProductOptions{})

	if err := cart.Add(ctx, []*types.Product{p}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(f.dispatcher.events) != 1 || f.dispatcher.events[0].EventName != "eCommerce - AddToCart" {
		t.Fatalf("dispatched = %v, want one AddToCart event", f.dispatcher.events)
	}
	if products, _ := cart.Products(ctx); len(products) != 1 {
		t.Errorf("len = %d, want 1 (no double add)", len(products))
	}

	if err := cart.Remove(ctx, &types.Product{Sku: "12345"}, true); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(f.dispatcher.events) != 2 {
		t.Fatalf("dispatched = %d, want 2", len(f.dispatcher.events))
	}
	removed := f.dispatcher.events[1]
	if removed.EventName != "eCommerce - RemoveFromCart" || removed.ProductAction.Products[0].Name != "iPhone" {
		t.Errorf("remove event = %q with %+v", removed.EventName, removed.ProductAction.Products)
	}
}

func TestCart_DeprecationWarnings(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	cart := f.assembler.Cart()
	p := mustProduct(t, "iPhone", "12345", 400, ProductOptions{})

	cart.Add(ctx, []*types.Product{p}, false)
	cart.Remove(ctx, p, false)
	cart.Clear(ctx)

	for _, msg := range []string{
		"Deprecated function Cart.Add() will be removed in future releases",
		"Deprecated function Cart.Remove() will be removed in future releases",
		"Deprecated function Cart.Clear() will be removed in future releases",
	} {
		if got := f.logs.FilterMessage(msg).Len(); got != 1 {
			t.Errorf("%q logged %d times, want 1", msg, got)
		}
	}
	if got := f.logs.FilterMessageSnippet("Deprecated function").Len(); got != 3 {
		t.Errorf("deprecation warnings = %d, want 3", got)
	}
}

func TestCart_IdentitiesAreIndependent(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	session := f.assembler.Session()
	cart := f.assembler.Cart()

	session.SetIdentity("alice")
	cart.Add(ctx, []*types.Product{mustProduct(t, "iPhone", "1", 400, ProductOptions{})}, false)
	session.SetIdentity("bob")
	cart.Add(ctx, []*types.Product{mustProduct(t, "iPad", "2", 600, ProductOptions{})}, false)
	cart.Clear(ctx)

	session.SetIdentity("alice")
	products, _ := cart.Products(ctx)
	if len(products) != 1 || products[0].Sku != "1" {
		t.Errorf("alice cart = %+v, want iPhone", products)
	}

	session.Reset()
	if session.Identity() != "" || session.CurrencyCode() != "" {
		t.Errorf("Reset() left identity=%q currency=%q", session.Identity(), session.CurrencyCode())
	}
}

func TestCart_StorageErrors(t *testing.T) {
	storageErr := errors.New("disk full")
	a := NewAssembler(AssemblerDeps{Storage: failingStorage{err: storageErr}, Logger: zap.NewNop()})
	p := mustProduct(t, "iPhone", "12345", 400, ProductOptions{})

	if err := a.Cart().Add(context.Background(), []*types.Product{p}, false); !errors.Is(err, storageErr) {
		t.Errorf("Add() error = %v, want %v", err, storageErr)
	}
	event, err := a.LogProductAction(context.Background(), types.ProductActionAddToCart, []*types.Product{p}, LogOptions{})
	if !errors.Is(err, storageErr) || event == nil {
		t.Errorf("LogProductAction() = %v, %v, want event and %v", event, err, storageErr)
	}
}

func TestSession_NonISOCurrencyWarns(t *testing.T) {
	f := newFixture(t, 0)
	session := f.assembler.Session()

	session.SetCurrencyCode("EUR")
	session.SetCurrencyCode("FOO")
	if session.CurrencyCode() != "FOO" {
		t.Errorf("CurrencyCode() = %q, want FOO", session.CurrencyCode())
	}
	if got := f.logs.FilterMessageSnippet("ISO 4217").Len(); got != 1 {
		t.Errorf("currency warnings = %d, want 1", got)
	}
}

// Property-based test: the cart never exceeds its capacity and keeps the newest entries
func TestCart_PropertyBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("adding n products keeps the newest min(n, max)", prop.ForAll(
		func(maxProducts, adds int) bool {
			a := NewAssembler(AssemblerDeps{MaxProducts: maxProducts})
			ctx := context.Background()
			for i := 0; i < adds; i++ {
				p := &types.Product{Name: "p", Sku: i, Price: 1, Quantity: 1}
				if err := a.cart.add(ctx, []*types.Product{p}); err != nil {
					return false
				}
			}
			products, err := a.Cart().Products(ctx)
			if err != nil {
				return false
			}
			want := min(adds, maxProducts)
			if len(products) != want {
				return false
			}
			return want == 0 || products[len(products)-1].Sku == adds-1
		},
		gen.IntRange(1, 25),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}

type countingStorage struct {
	*MemoryCartStorage
	writes int
}

func (c *countingStorage) WriteCart(ctx context.Context, identity string, products []*types.Product) error {
	c.writes++
	return c.MemoryCartStorage.WriteCart(ctx, identity, products)
}

func TestCart_RemoveWritesWhenNothingMatched(t *testing.T) {
	storage := &countingStorage{MemoryCartStorage: NewMemoryCartStorage()}
	a := NewAssembler(AssemblerDeps{Storage: storage, Logger: zap.NewNop()})
	ctx := context.Background()

	if _, err := a.cart.remove(ctx, []*types.Product{{Sku: "missing"}}); err != nil {
		t.Fatalf("remove() error = %v", err)
	}
	if storage.writes != 1 {
		t.Errorf("writes = %d, want 1", storage.writes)
	}
	if products, _ := a.Cart().Products(ctx); len(products) != 0 {
		t.Errorf("cart = %+v, want empty", products)
	}
}

func TestCart_NonFiniteValuesStoredAsZero(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := mustProduct(t, "iPhone", "12345", math.Inf(1), ProductOptions{
		Quantity:   math.NaN(),
		Attributes: types.Attributes{"weight": math.Inf(-1), "color": "red"},
	})

	event, err := f.assembler.LogProductAction(ctx, types.ProductActionAddToCart, []*types.Product{p}, LogOptions{})
	if err != nil {
		t.Fatalf("LogProductAction() error = %v", err)
	}
	if item := event.ProductAction.Products[0]; item.Price != 0 || item.Quantity != 0 {
		t.Errorf("item price/quantity = %v/%v, want 0/0", item.Price, item.Quantity)
	}

	products, err := f.assembler.Cart().Products(ctx)
	if err != nil || len(products) != 1 {
		t.Fatalf("Products() = %v, %v, want one product", products, err)
	}
	stored := products[0]
	if stored.Price != 0 || stored.Quantity != 0 || stored.Attributes["weight"] != 0 || stored.Attributes["color"] != "red" {
		t.Errorf("stored = %+v", stored)
	}
	if data, err := types.EncodeProducts(products); err != nil {
		t.Errorf("EncodeProducts() = %s, %v", data, err)
	}
	if !math.IsInf(p.Price.(float64), 1) {
		t.Errorf("caller product mutated: price = %v", p.Price)
	}
}
