package server

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/auth"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/forward"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

// UploadRecord is one line of <data_dir>/uploads/YYYY-MM-DD.jsonl.
type UploadRecord struct {
	KeyID      string         `json:"key_id"`
	ReceivedAt string         `json:"received_at"`
	Event      map[string]any `json:"event"`
}

// Collector implements transport.EventServiceServer by appending received
// uploads to daily JSONL files.
type Collector struct {
	writer *forward.JSONLWriter
	logger *zap.Logger
}

// NewCollector creates the uploads directory under dataDir.
func NewCollector(dataDir string, logger *zap.Logger) (*Collector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := forward.NewJSONLWriter(filepath.Join(dataDir, "uploads"))
	if err != nil {
		return nil, err
	}
	return &Collector{writer: w, logger: logger}, nil
}

// Upload validates the message type and event ID, then records the upload.
func (c *Collector) Upload(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	keyID := auth.KeyIDFromContext(ctx)
	if keyID == "" {
		return nil, status.Error(codes.Internal, "missing key_id in context")
	}

	fields := req.GetFields()
	if dt := fields["dt"].GetStringValue(); dt != ecommerce.MessageTypeCommerce {
		return nil, status.Errorf(codes.InvalidArgument, "unexpected message type %q", dt)
	}
	id, err := types.ParseEventID(fields["id"].GetStringValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid event id: %v", err)
	}

	record := UploadRecord{
		KeyID:      keyID,
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Event:      req.AsMap(),
	}
	filename, err := c.writer.Append(record)
	if err != nil {
		c.logger.Error("Failed to record upload", zap.String("id", string(id)), zap.Error(err))
		return nil, status.Error(codes.Unavailable, "failed to record upload")
	}

	c.logger.Info("Received commerce event",
		zap.String("id", string(id)),
		zap.String("name", fields["n"].GetStringValue()),
		zap.String("key_id", keyID),
		zap.String("file", filename))
	return &emptypb.Empty{}, nil
}
