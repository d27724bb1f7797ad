package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/signalsfoundry/orbit-viz/internal/logging"
)

const connIDMetadataKey = "x-conn-id"

// ConnIDUnaryServerInterceptor ensures a conn_id is present on the context,
// sourcing it from inbound metadata if provided, and attaches a per-call
// logger annotated with conn_id and method.
func ConnIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(withCallLogger(ctx, base, info.FullMethod), req)
	}
}

// ConnIDStreamServerInterceptor is the streaming counterpart of
// ConnIDUnaryServerInterceptor.
func ConnIDStreamServerInterceptor(base logging.Logger) grpc.StreamServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := withCallLogger(ss.Context(), base, info.FullMethod)
		return handler(srv, &contextStream{ServerStream: ss, ctx: ctx})
	}
}

func withCallLogger(ctx context.Context, base logging.Logger, method string) context.Context {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if incoming := firstHeader(md, connIDMetadataKey); incoming != "" {
			ctx = logging.ContextWithConnID(ctx, incoming)
		}
	}
	ctx, callLog := logging.WithConnLogger(ctx, base.With(logging.String("method", method)))
	return logging.ContextWithLogger(ctx, callLog)
}

type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context { return s.ctx }

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
