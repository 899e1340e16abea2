package transport

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/auth"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
)

// GRPCUploader calls EventService/Upload on a collector.
type GRPCUploader struct {
	conn   grpc.ClientConnInterface
	closer func() error
	signer *auth.Signer
	logger *zap.Logger
}

// DialGRPC connects to target (host:port) without TLS. The collector is a
// development endpoint.
func DialGRPC(target string, signer *auth.Signer, logger *zap.Logger, opts ...grpc.DialOption) (*GRPCUploader, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial collector %s: %w", target, err)
	}
	u := NewGRPCUploader(conn, signer, logger)
	u.closer = conn.Close
	return u, nil
}

// NewGRPCUploader uses an existing connection. The caller owns conn.
func NewGRPCUploader(conn grpc.ClientConnInterface, signer *auth.Signer, logger *zap.Logger) *GRPCUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCUploader{conn: conn, signer: signer, logger: logger}
}

// Upload implements ecommerce.Transport.
func (u *GRPCUploader) Upload(ctx context.Context, event *ecommerce.WireEvent) error {
	req, err := ToStruct(event)
	if err != nil {
		return err
	}
	if u.signer != nil {
		body, err := CanonicalStruct(req)
		if err != nil {
			return err
		}
		ctx = auth.AppendToOutgoingContext(ctx, u.signer.Sign(body))
	}

	if err := u.conn.Invoke(ctx, UploadMethod, req, &emptypb.Empty{}); err != nil {
		return fmt.Errorf("upload event %s: %w", event.ID, err)
	}
	u.logger.Debug("Uploaded commerce event", zap.String("id", string(event.ID)))
	return nil
}

// Close releases the connection when the uploader dialed it.
func (u *GRPCUploader) Close() error {
	if u.closer == nil {
		return nil
	}
	return u.closer()
}
