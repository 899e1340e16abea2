package cache

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// newTestStore connects to MP_TEST_REDIS_ADDR (host:port) or skips. Keys are
// namespaced per test run.
func newTestStore(t *testing.T, opts ...Option) (*CartStore, *redis.Client) {
	t.Helper()
	addr := os.Getenv("MP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MP_TEST_REDIS_ADDR not set")
	}
	client, err := Open(context.Background(), "redis://"+addr+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	prefix := "mp:test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})
	return NewCartStore(client, append([]Option{WithKeyPrefix(prefix)}, opts...)...), client
}

func TestCartStore_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	products, err := store.ReadCart(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, products)

	cart := []*types.Product{
		{Name: "iPhone", Sku: 12345, Price: 400, Quantity: 2},
		{Name: "Case", Sku: "C-1", Price: "19.99"},
	}
	require.NoError(t, store.WriteCart(ctx, "alice", cart))
	require.NoError(t, store.WriteCart(ctx, "bob", cart[1:]))

	got, err := store.ReadCart(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, json.Number("12345"), got[0].Sku)
	assert.Equal(t, "C-1", got[1].Sku)

	identities, err := store.ListIdentities(ctx)
	require.NoError(t, err)
	sort.Strings(identities)
	assert.Equal(t, []string{"alice", "bob"}, identities)

	require.NoError(t, store.DeleteCart(ctx, "bob"))
	assert.ErrorIs(t, store.DeleteCart(ctx, "bob"), types.ErrCartNotFound)
}

func TestCartStore_TTL(t *testing.T) {
	store, client := newTestStore(t, WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.WriteCart(ctx, "alice", []*types.Product{{Name: "iPhone", Sku: "1", Price: 1}}))
	ttl, err := client.TTL(ctx, store.key("alice")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "http://not-redis")
	assert.Error(t, err)
}

func TestNewCartStore_Options(t *testing.T) {
	s := NewCartStore(nil)
	assert.Equal(t, "mp:cart:alice", s.key("alice"))

	s = NewCartStore(nil, WithKeyPrefix("shop:"), WithTTL(time.Minute))
	assert.Equal(t, "shop:alice", s.key("alice"))
	assert.Equal(t, time.Minute, s.ttl)
}
