package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/orbit-viz/internal/config"
	"github.com/signalsfoundry/orbit-viz/internal/logging"
	"github.com/signalsfoundry/orbit-viz/internal/observability"
	"github.com/signalsfoundry/orbit-viz/internal/rpc"
	"github.com/signalsfoundry/orbit-viz/internal/stream"
	"github.com/signalsfoundry/orbit-viz/timectrl"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the real-time frame loop and serve frames over WebSocket, HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, log)
		},
	}
	flags := cmd.Flags()
	flags.String("http-addr", ":8080", "address for /ws and the HTTP API")
	flags.String("grpc-addr", ":50051", "address for the gRPC SatelliteService")
	flags.String("metrics-addr", ":9090", "address for Prometheus /metrics (empty disables)")
	flags.Float64("frame-rate", timectrl.DefaultFrameRate, "frames per second")
	flags.Bool("tracing", false, "enable OpenTelemetry tracing")
	flags.String("tracing-exporter", "stdout", "tracing exporter: stdout or otlp")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewFrameCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	a, err := newApp(ctx, cfg, log, timectrl.RealTime, collector)
	if err != nil {
		return err
	}

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %q: %w", cfg.HTTPAddr, err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen grpc %q: %w", cfg.GRPCAddr, err)
	}
	var metricsLis net.Listener
	if cfg.MetricsAddr != "" {
		if metricsLis, err = net.Listen("tcp", cfg.MetricsAddr); err != nil {
			_ = httpLis.Close()
			_ = grpcLis.Close()
			return fmt.Errorf("listen metrics %q: %w", cfg.MetricsAddr, err)
		}
	}

	hub := stream.NewHub(a.store, log, stream.WithMetrics(collector))
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	httpSrv := &http.Server{Handler: hub.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go serveHTTP(ctx, httpSrv, httpLis, "stream", log)

	var metricsSrv *http.Server
	if metricsLis != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go serveHTTP(ctx, metricsSrv, metricsLis, "metrics", log)
	}

	grpcSrv, health := rpc.NewServer(rpc.NewSatelliteService(a.store, log), log, collector)
	go serveGRPC(ctx, grpcSrv, grpcLis, log)

	loopDone := a.loop.Start(ctx, 0)
	log.Info(ctx, "frame loop running", logging.Float64("frame_rate", cfg.FrameRate))

	var loopErr error
	select {
	case <-ctx.Done():
		loopErr = <-loopDone
	case loopErr = <-loopDone:
	}
	if errors.Is(loopErr, context.Canceled) {
		loopErr = nil
	}

	log.Info(context.Background(), "shutting down", logging.Uint64("frames", a.loop.Frame()))
	health.Shutdown()
	grpcSrv.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	stop()
	<-hubDone
	return loopErr
}

func serveHTTP(ctx context.Context, srv *http.Server, lis net.Listener, name string, log logging.Logger) {
	log.Info(ctx, "serving "+name, logging.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, name+" server exited", logging.Err(err))
	}
}

func serveGRPC(ctx context.Context, srv *grpc.Server, lis net.Listener, log logging.Logger) {
	log.Info(ctx, "serving gRPC", logging.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil {
		log.Error(ctx, "gRPC server exited", logging.Err(err))
	}
}
