// Package server runs the development collector: a gRPC endpoint that accepts
// signed commerce uploads and records them as JSONL.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/auth"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/config"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/transport"
)

// forceStopAfter bounds a graceful stop when the caller's context has no
// deadline.
const forceStopAfter = 30 * time.Second

// GRPCServer owns the collector's grpc.Server and its health status.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	addr   string
	logger *zap.Logger
}

// NewGRPCServer registers collector behind the verifier's signature check.
// The standard health service is registered alongside and needs no
// credentials.
func NewGRPCServer(cfg *config.CollectorConfig, collector *Collector, verifier *auth.Verifier) (*GRPCServer, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("cfg cannot be nil")
	case collector == nil:
		return nil, errors.New("collector cannot be nil")
	case verifier == nil:
		return nil, errors.New("verifier cannot be nil")
	}

	s := &GRPCServer{
		server: grpc.NewServer(grpc.ChainUnaryInterceptor(
			verifier.UnaryInterceptor(transport.CanonicalStruct),
		)),
		health: health.NewServer(),
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		logger: collector.logger,
	}
	transport.RegisterEventServiceServer(s.server, collector)
	grpc_health_v1.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus(transport.EventServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	return s, nil
}

// Addr is the configured listen address.
func (s *GRPCServer) Addr() string { return s.addr }

// Start listens on the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on lis until Shutdown.
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Debug("Collector listening", zap.String("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Shutdown reports NOT_SERVING, then drains in-flight calls. The server is
// stopped hard when ctx ends first.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	drained := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(drained)
	}()

	timer := time.NewTimer(forceStopAfter)
	defer timer.Stop()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-timer.C:
		s.server.Stop()
		return errors.New("graceful shutdown timeout, forced stop")
	}
}
