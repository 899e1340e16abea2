package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/config"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	storage, closeFn, err := openStorage(ctx, "memory://")
	if err != nil {
		t.Fatalf("openStorage(memory) error = %v", err)
	}
	defer closeFn()
	if _, ok := storage.(*ecommerce.MemoryCartStorage); !ok {
		t.Errorf("openStorage(memory) = %T, want *MemoryCartStorage", storage)
	}

	_, _, err = openStorage(ctx, "mongodb://localhost")
	if !errors.Is(err, types.ErrUnsupportedStorage) {
		t.Errorf("openStorage(mongodb) error = %v, want ErrUnsupportedStorage", err)
	}

	_, _, err = openCartStore(ctx, "memory://")
	if err == nil {
		t.Error("openCartStore(memory) should require persistent storage")
	}

	// A fresh sqlite database has pending migrations
	url := "sqlite://" + filepath.Join(t.TempDir(), "carts.db")
	_, _, err = openStorage(ctx, url)
	if err == nil || !strings.Contains(err.Error(), "migrate up") {
		t.Errorf("openStorage(unmigrated sqlite) error = %v", err)
	}
}

func TestOpenTransport(t *testing.T) {
	cfg := config.DefaultConfig()
	tr, closeFn, err := openTransport(cfg, nil)
	if err != nil || tr != nil {
		t.Errorf("openTransport(none) = %v, %v; want nil, nil", tr, err)
	}
	closeFn()

	t.Setenv("MP_API_SECRET", "")
	cfg.Upload.Transport = config.TransportHTTP
	cfg.Upload.URL = "http://127.0.0.1:1/events"
	cfg.Upload.APIKey = "mp-v1-0123456789abcdef0123456789abcdef-" + strings.Repeat("ab", 32)
	if _, _, err := openTransport(cfg, nil); err == nil {
		t.Error("expected error for api key without MP_API_SECRET")
	}

	cfg.Upload.APIKey = ""
	tr, _, err = openTransport(cfg, nil)
	if err != nil || tr == nil {
		t.Errorf("openTransport(http) = %v, %v", tr, err)
	}
}

// TestCLI_SQLiteWorkflow drives the commands end to end against one sqlite
// database.
func TestCLI_SQLiteWorkflow(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "script.yaml")
	if err := os.WriteFile(scriptPath, []byte(`
identity: alice
steps:
  - op: add_to_cart
    products:
      - {name: iPhone, sku: 12345, price: 400}
  - op: product_action
    action: view_detail
    products:
      - {name: Case, sku: C-1, price: 20}
    attributes: {source: test}
`), 0644); err != nil {
		t.Fatal(err)
	}

	common := []string{
		"--storage-url", "sqlite://" + filepath.Join(dir, "carts.db"),
		"--data-dir", filepath.Join(dir, "forward"),
		"--log-level", "error",
	}
	execute := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append(args, common...))
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	execute("migrate", "up")
	if status := execute("migrate", "status"); !strings.Contains(status, "001_carts.sql") || !strings.Contains(status, "applied") {
		t.Errorf("migrate status = %q", status)
	}

	out := execute("run", scriptPath)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("run printed %d events, want 1: %q", len(lines), out)
	}
	var wire map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &wire); err != nil {
		t.Fatal(err)
	}
	if wire["dt"] != "cm" || wire["n"] != "eCommerce - ViewDetail" {
		t.Errorf("wire = %v", wire)
	}

	var cart []map[string]any
	if err := json.Unmarshal([]byte(execute("cart", "show", "alice")), &cart); err != nil {
		t.Fatal(err)
	}
	if len(cart) != 1 || cart[0]["Name"] != "iPhone" {
		t.Errorf("cart show = %v", cart)
	}
	if got := strings.TrimSpace(execute("cart", "list")); got != "alice" {
		t.Errorf("cart list = %q, want alice", got)
	}

	expanded := execute("expand", scriptPath)
	if !strings.Contains(expanded, `"EventName":"eCommerce - view_detail - Item"`) {
		t.Errorf("expand = %q", expanded)
	}

	forwarded, err := filepath.Glob(filepath.Join(dir, "forward", "events", "*.jsonl"))
	if err != nil || len(forwarded) != 1 {
		t.Errorf("forwarded files = %v, %v", forwarded, err)
	}

	execute("cart", "clear", "alice")
	if got := strings.TrimSpace(execute("cart", "list")); got != "" {
		t.Errorf("cart list after clear = %q", got)
	}
}
