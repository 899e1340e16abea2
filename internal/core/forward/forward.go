// Package forward hands assembled commerce events to local forwarders.
// Forwarders run for every event, including those not uploaded.
package forward

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// Forwarder receives every assembled event.
type Forwarder interface {
	Name() string
	Forward(ctx context.Context, event *types.CommerceEvent) error
}

// Registry fans an event out to its forwarders. It implements
// ecommerce.Dispatcher.
type Registry struct {
	forwarders []Forwarder
	logger     *zap.Logger
}

// NewRegistry creates a registry with the given forwarders.
func NewRegistry(logger *zap.Logger, forwarders ...Forwarder) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{forwarders: forwarders, logger: logger}
}

// Register adds a forwarder.
func (r *Registry) Register(f Forwarder) {
	r.forwarders = append(r.forwarders, f)
}

// Len returns the number of registered forwarders.
func (r *Registry) Len() int {
	return len(r.forwarders)
}

// Dispatch calls every forwarder. A failing forwarder does not stop the
// others; all failures are returned joined.
func (r *Registry) Dispatch(ctx context.Context, event *types.CommerceEvent) error {
	var errs []error
	for _, f := range r.forwarders {
		if err := f.Forward(ctx, event); err != nil {
			r.logger.Warn("Forwarder failed",
				zap.String("forwarder", f.Name()),
				zap.String("event_id", string(event.ID)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("forwarder %s: %w", f.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LegacyRecord is one line of the legacy forwarder's output.
type LegacyRecord struct {
	EventID     types.EventID `json:"event_id"`
	ForwardedAt string        `json:"forwarded_at"`
	types.LegacyEvent
}

// LegacyForwarder expands commerce events into flat legacy events and
// appends them to <dataDir>/events/YYYY-MM-DD.jsonl.
type LegacyForwarder struct {
	writer *JSONLWriter
	logger *zap.Logger
}

// NewLegacyForwarder creates the events directory under dataDir.
func NewLegacyForwarder(dataDir string, logger *zap.Logger) (*LegacyForwarder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := NewJSONLWriter(filepath.Join(dataDir, "events"))
	if err != nil {
		return nil, err
	}
	return &LegacyForwarder{writer: w, logger: logger}, nil
}

// Name implements Forwarder.
func (f *LegacyForwarder) Name() string { return "jsonl" }

// Forward implements Forwarder.
func (f *LegacyForwarder) Forward(ctx context.Context, event *types.CommerceEvent) error {
	expanded := ecommerce.Expand(event)
	if len(expanded) == 0 {
		return nil
	}

	forwardedAt := f.writer.now().UTC().Format(time.RFC3339)
	records := make([]any, len(expanded))
	for i, e := range expanded {
		records[i] = LegacyRecord{EventID: event.ID, ForwardedAt: forwardedAt, LegacyEvent: e}
	}
	filename, err := f.writer.Append(records...)
	if err != nil {
		return err
	}
	f.logger.Debug("Forwarded legacy events",
		zap.String("event_id", string(event.ID)),
		zap.Int("count", len(records)),
		zap.String("file", filename))
	return nil
}
