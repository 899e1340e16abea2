package forward

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

type stubForwarder struct {
	name   string
	err    error
	events []*types.CommerceEvent
}

func (s *stubForwarder) Name() string { return s.name }

func (s *stubForwarder) Forward(_ context.Context, event *types.CommerceEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func purchaseEvent(t *testing.T, dispatcher ecommerce.Dispatcher) *types.CommerceEvent {
	t.Helper()
	product, err := ecommerce.CreateProduct("iPhone", "12345", 400, ecommerce.ProductOptions{Quantity: 2, Brand: "Apple"})
	require.NoError(t, err)
	ta, err := ecommerce.CreateTransactionAttributes("TX-1", ecommerce.TransactionOptions{Revenue: 800})
	require.NoError(t, err)

	a := ecommerce.NewAssembler(ecommerce.AssemblerDeps{Dispatcher: dispatcher})
	event, err := a.LogPurchase(context.Background(), ta, []*types.Product{product}, ecommerce.LogOptions{})
	require.NoError(t, err)
	return event
}

func readLines(t *testing.T, filename string) []map[string]any {
	t.Helper()
	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines = append(lines, m)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestRegistry_DispatchJoinsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ok := &stubForwarder{name: "ok"}
	bad := &stubForwarder{name: "bad", err: errors.New("disk full")}
	after := &stubForwarder{name: "after"}
	r := NewRegistry(zap.New(core), ok, bad)
	r.Register(after)
	assert.Equal(t, 3, r.Len())

	event := &types.CommerceEvent{ID: types.NewEventID()}
	err := r.Dispatch(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forwarder bad: disk full")

	// Every forwarder still saw the event
	assert.Len(t, ok.events, 1)
	assert.Len(t, bad.events, 1)
	assert.Len(t, after.events, 1)
	assert.Equal(t, 1, logs.FilterMessage("Forwarder failed").Len())
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry(nil)
	assert.NoError(t, r.Dispatch(context.Background(), &types.CommerceEvent{}))
}

func TestLegacyForwarder_WritesExpandedEvents(t *testing.T) {
	dir := t.TempDir()
	f, err := NewLegacyForwarder(dir, nil)
	require.NoError(t, err)
	f.writer.now = func() time.Time { return time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC) }

	r := NewRegistry(nil, f)
	event := purchaseEvent(t, r)

	lines := readLines(t, filepath.Join(dir, "events", "2024-03-09.jsonl"))
	require.Len(t, lines, 2)
	assert.Equal(t, "eCommerce - purchase - Total", lines[0]["EventName"])
	assert.Equal(t, "eCommerce - purchase - Item", lines[1]["EventName"])
	for _, l := range lines {
		assert.Equal(t, string(event.ID), l["event_id"])
		assert.Equal(t, "2024-03-09T23:59:00Z", l["forwarded_at"])
	}
	total := lines[0]["EventAttributes"].(map[string]any)
	assert.Equal(t, "TX-1", total["Transaction Id"])
	assert.Equal(t, float64(1), total["Product Count"])
	item := lines[1]["EventAttributes"].(map[string]any)
	assert.Equal(t, "Apple", item["Brand"])
	assert.Equal(t, "12345", item["Id"])
}

func TestJSONLWriter_ConcurrentAppends(t *testing.T) {
	w, err := NewJSONLWriter(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := w.Append(map[string]int{"n": i}, map[string]int{"n": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	lines := readLines(t, w.Filename(time.Now()))
	assert.Len(t, lines, 40)
}

func TestJSONLWriter_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err := NewJSONLWriter(filepath.Join(file, "sub"))
	assert.Error(t, err)
}
