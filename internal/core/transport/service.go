// Package transport uploads serialized commerce events to a collector over
// HTTP or gRPC. Every upload is signed with the configured API key.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
)

// gRPC service and method names of the event collector.
const (
	EventServiceName = "mparticle.commerce.v1.EventService"
	UploadMethod     = "/" + EventServiceName + "/Upload"
)

// EventServiceServer is implemented by collectors. The request is the wire
// event as a protobuf Struct.
type EventServiceServer interface {
	Upload(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// EventServiceDesc describes the collector service for grpc.Server.
var EventServiceDesc = grpc.ServiceDesc{
	ServiceName: EventServiceName,
	HandlerType: (*EventServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Upload", Handler: uploadHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mparticle/commerce/v1/event_service.proto",
}

// RegisterEventServiceServer registers srv on s.
func RegisterEventServiceServer(s grpc.ServiceRegistrar, srv EventServiceServer) {
	s.RegisterService(&EventServiceDesc, srv)
}

func uploadHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EventServiceServer).Upload(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UploadMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EventServiceServer).Upload(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// CanonicalJSON renders event in RFC 8785 canonical form. This is the body
// that gets signed and, for HTTP, sent.
func CanonicalJSON(event *ecommerce.WireEvent) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal wire event: %w", err)
	}
	return jcs.Transform(raw)
}

// ToStruct converts a wire event to the gRPC request message.
func ToStruct(event *ecommerce.WireEvent) (*structpb.Struct, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal wire event: %w", err)
	}
	s := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("convert wire event: %w", err)
	}
	return s, nil
}

// CanonicalStruct renders a request message in canonical JSON form. Client
// and collector both sign over this rendering.
func CanonicalStruct(msg any) ([]byte, error) {
	s, ok := msg.(*structpb.Struct)
	if !ok {
		return nil, fmt.Errorf("unexpected request type %T", msg)
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return jcs.Transform(raw)
}
