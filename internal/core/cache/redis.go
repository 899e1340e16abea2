// Package cache provides a Redis-backed cart store for deployments that share
// carts between processes without a SQL database.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

const defaultKeyPrefix = "mp:cart:"

// CartStore keeps one JSON string per identity under "<prefix><identity>".
// It implements ecommerce.CartPersistence.
type CartStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option configures a CartStore.
type Option func(*CartStore)

// WithKeyPrefix overrides the key prefix (default "mp:cart:").
func WithKeyPrefix(prefix string) Option {
	return func(s *CartStore) { s.prefix = prefix }
}

// WithTTL expires idle carts after ttl. Zero keeps carts forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *CartStore) { s.ttl = ttl }
}

// Open connects to the Redis server named by a redis:// or rediss:// URL and
// verifies the connection.
func Open(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewCartStore returns a store on client.
func NewCartStore(client *redis.Client, opts ...Option) *CartStore {
	s := &CartStore{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CartStore) key(identity string) string {
	return s.prefix + identity
}

// ReadCart returns the stored products for identity, or an empty list when the
// key does not exist.
func (s *CartStore) ReadCart(ctx context.Context, identity string) ([]*types.Product, error) {
	data, err := s.client.Get(ctx, s.key(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart %q: %w", identity, err)
	}
	return types.DecodeProducts(data)
}

// WriteCart replaces the stored products for identity and refreshes its TTL.
func (s *CartStore) WriteCart(ctx context.Context, identity string, products []*types.Product) error {
	data, err := types.EncodeProducts(products)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(identity), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set cart %q: %w", identity, err)
	}
	return nil
}

// DeleteCart removes the key for identity. Returns ErrCartNotFound when there
// was none.
func (s *CartStore) DeleteCart(ctx context.Context, identity string) error {
	n, err := s.client.Del(ctx, s.key(identity)).Result()
	if err != nil {
		return fmt.Errorf("delete cart %q: %w", identity, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", types.ErrCartNotFound, identity)
	}
	return nil
}

// ListIdentities scans for cart keys and returns their identities.
// The order is unspecified.
func (s *CartStore) ListIdentities(ctx context.Context) ([]string, error) {
	var identities []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		identities = append(identities, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan carts: %w", err)
	}
	return identities, nil
}
