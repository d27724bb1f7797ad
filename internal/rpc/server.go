package rpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/orbit-viz/internal/logging"
	"github.com/signalsfoundry/orbit-viz/internal/observability"
)

// NewServer builds a gRPC server with tracing, conn-scoped logging and
// metrics interceptors, and registers svc plus the standard health service.
// collector may be nil.
func NewServer(svc SatelliteServiceServer, log logging.Logger, collector *observability.FrameCollector) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			ConnIDUnaryServerInterceptor(log),
			collector.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			ConnIDStreamServerInterceptor(log),
			collector.StreamServerInterceptor(),
		),
	)
	RegisterSatelliteServiceServer(srv, svc)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}
