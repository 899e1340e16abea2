package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/auth"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/cache"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/config"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/db"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/forward"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/transport"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// cartStore is a persistent CartPersistence that can also be administered.
type cartStore interface {
	ecommerce.CartPersistence
	DeleteCart(ctx context.Context, identity string) error
	ListIdentities(ctx context.Context) ([]string, error)
}

// openStorage selects the cart backend by URL scheme. The returned close
// function is never nil.
func openStorage(ctx context.Context, storageURL string) (ecommerce.CartPersistence, func() error, error) {
	noop := func() error { return nil }

	scheme, _, _ := strings.Cut(storageURL, "://")
	switch scheme {
	case "memory":
		return ecommerce.NewMemoryCartStorage(), noop, nil
	case "redis", "rediss":
		client, err := cache.Open(ctx, storageURL)
		if err != nil {
			return nil, noop, err
		}
		return cache.NewCartStore(client), client.Close, nil
	case "sqlite", "postgres", "postgresql":
		database, err := db.Open(ctx, storageURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open database: %w", err)
		}
		if err := requireMigrated(ctx, database); err != nil {
			database.Close()
			return nil, noop, err
		}
		store, err := db.NewCartStore(database)
		if err != nil {
			database.Close()
			return nil, noop, err
		}
		return store, database.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", types.ErrUnsupportedStorage, storageURL)
	}
}

// openCartStore is openStorage restricted to backends that outlive the
// process.
func openCartStore(ctx context.Context, storageURL string) (cartStore, func() error, error) {
	storage, closeFn, err := openStorage(ctx, storageURL)
	if err != nil {
		return nil, closeFn, err
	}
	store, ok := storage.(cartStore)
	if !ok {
		closeFn()
		return nil, func() error { return nil }, fmt.Errorf("cart commands need persistent storage, got %q", storageURL)
	}
	return store, closeFn, nil
}

// requireMigrated fails when any embedded migration is pending.
func requireMigrated(ctx context.Context, database *sqlx.DB) error {
	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'mpcommerce migrate up' first", s.ID)
		}
	}
	return nil
}

// openTransport builds the upload collaborator. It returns a nil Transport
// for the "none" transport.
func openTransport(cfg *config.Config, logger *zap.Logger) (ecommerce.Transport, func() error, error) {
	noop := func() error { return nil }
	if cfg.Upload.Transport == config.TransportNone {
		return nil, noop, nil
	}

	signer, err := newSigner(cfg.Upload.APIKey)
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Upload.Transport {
	case config.TransportHTTP:
		return transport.NewHTTPUploader(cfg.Upload.URL, cfg.Upload.Timeout, signer, logger), noop, nil
	case config.TransportGRPC:
		u, err := transport.DialGRPC(cfg.Upload.URL, signer, logger)
		if err != nil {
			return nil, noop, err
		}
		return timeoutTransport{next: u, timeout: cfg.Upload.Timeout}, u.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown transport %q", cfg.Upload.Transport)
	}
}

// newSigner returns nil when no API key is configured. A key without
// MP_API_SECRET is an error.
func newSigner(apiKey string) (*auth.Signer, error) {
	if apiKey == "" {
		return nil, nil
	}
	keyID, secret, err := config.APISecret()
	if err != nil {
		return nil, err
	}
	if keyID == "" {
		return nil, errors.New("upload.api_key is set but MP_API_SECRET is not")
	}
	return auth.NewSigner(apiKey, keyID, secret)
}

// openForwarders builds the dispatcher. The JSONL forwarder is registered
// when a data directory is configured.
func openForwarders(cfg *config.Config, logger *zap.Logger) (*forward.Registry, error) {
	registry := forward.NewRegistry(logger)
	if cfg.Forward.DataDir != "" {
		f, err := forward.NewLegacyForwarder(cfg.Forward.DataDir, logger)
		if err != nil {
			return nil, err
		}
		registry.Register(f)
	}
	return registry, nil
}

// timeoutTransport bounds each upload. The HTTP uploader has its own client
// timeout; gRPC calls take their deadline from the context.
type timeoutTransport struct {
	next    ecommerce.Transport
	timeout time.Duration
}

func (t timeoutTransport) Upload(ctx context.Context, event *ecommerce.WireEvent) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Upload(ctx, event)
}
