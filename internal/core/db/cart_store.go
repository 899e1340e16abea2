package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// CartStore persists carts as one row per identity holding the JSON-encoded
// product list. It implements ecommerce.CartPersistence.
type CartStore struct {
	queries *Queries
	now     func() time.Time
}

// NewCartStore loads the cart queries for db. The schema must already be
// migrated.
func NewCartStore(db *sqlx.DB) (*CartStore, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &CartStore{queries: queries, now: time.Now}, nil
}

// ReadCart returns the stored products for identity, or an empty list when no
// row exists.
func (s *CartStore) ReadCart(ctx context.Context, identity string) ([]*types.Product, error) {
	var raw string
	err := s.queries.Get(ctx, "get-cart", &raw, identity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart %q: %w", identity, err)
	}
	return types.DecodeProducts([]byte(raw))
}

// WriteCart replaces the stored products for identity.
func (s *CartStore) WriteCart(ctx context.Context, identity string, products []*types.Product) error {
	data, err := types.EncodeProducts(products)
	if err != nil {
		return err
	}
	if _, err := s.queries.Exec(ctx, "upsert-cart", identity, string(data), s.now().UTC()); err != nil {
		return fmt.Errorf("upsert cart %q: %w", identity, err)
	}
	return nil
}

// DeleteCart removes the record for identity. Returns ErrCartNotFound when
// there was none.
func (s *CartStore) DeleteCart(ctx context.Context, identity string) error {
	res, err := s.queries.Exec(ctx, "delete-cart", identity)
	if err != nil {
		return fmt.Errorf("delete cart %q: %w", identity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart %q: %w", identity, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", types.ErrCartNotFound, identity)
	}
	return nil
}

// ListIdentities returns every identity with a stored cart, sorted.
func (s *CartStore) ListIdentities(ctx context.Context) ([]string, error) {
	var identities []string
	if err := s.queries.Select(ctx, "list-cart-identities", &identities); err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	return identities, nil
}
