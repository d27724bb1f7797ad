package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// FrameCollector bundles Prometheus metrics for the frame loop, the stream
// hub and the RPC surface, and provides helpers to wire them into gRPC
// servers and HTTP handlers. A nil collector is a valid no-op.
type FrameCollector struct {
	gatherer prometheus.Gatherer

	FramesTotal   prometheus.Counter
	FrameDuration prometheus.Histogram
	Satellites    prometheus.Gauge
	TrailPoints   prometheus.Gauge

	StreamClients prometheus.Gauge
	StreamDropped prometheus.Counter

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec
}

// NewFrameCollector registers metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewFrameCollector(reg prometheus.Registerer) (*FrameCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbits_frames_total",
		Help: "Total number of simulated animation frames.",
	}), "orbits_frames_total")
	if err != nil {
		return nil, err
	}
	frameDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orbits_frame_duration_seconds",
		Help:    "Time spent stepping, uploading and publishing one frame.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033},
	}), "orbits_frame_duration_seconds")
	if err != nil {
		return nil, err
	}
	satellites, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbits_satellites",
		Help: "Number of satellites registered in the scene.",
	}), "orbits_satellites")
	if err != nil {
		return nil, err
	}
	trailPoints, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbits_trail_points",
		Help: "Total trail positions currently held across all satellites.",
	}), "orbits_trail_points")
	if err != nil {
		return nil, err
	}
	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbits_stream_clients",
		Help: "Connected WebSocket renderers.",
	}), "orbits_stream_clients")
	if err != nil {
		return nil, err
	}
	dropped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbits_stream_dropped_frames_total",
		Help: "Frames skipped because a renderer's send buffer was full.",
	}), "orbits_stream_dropped_frames_total")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbits_rpc_requests_total",
		Help: "Total number of handled RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"})
	requests, err = registerCounterVec(reg, requests, "orbits_rpc_requests_total")
	if err != nil {
		return nil, err
	}
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbits_rpc_duration_seconds",
		Help:    "RPC latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}, []string{"service", "method"})
	durations, err = registerHistogramVec(reg, durations, "orbits_rpc_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &FrameCollector{
		gatherer:      gatherer,
		FramesTotal:   frames,
		FrameDuration: frameDuration,
		Satellites:    satellites,
		TrailPoints:   trailPoints,
		StreamClients: clients,
		StreamDropped: dropped,
		RPCRequests:   requests,
		RPCDurations:  durations,
	}, nil
}

// ObserveFrame records one completed frame.
func (c *FrameCollector) ObserveFrame(d time.Duration, satellites, trailPoints int) {
	if c == nil {
		return
	}
	c.FramesTotal.Inc()
	c.FrameDuration.Observe(d.Seconds())
	c.Satellites.Set(float64(satellites))
	c.TrailPoints.Set(float64(trailPoints))
}

// SetStreamClients satisfies the stream hub's metrics hook.
func (c *FrameCollector) SetStreamClients(n int) {
	if c == nil {
		return
	}
	c.StreamClients.Set(float64(n))
}

// IncStreamDropped counts a frame that could not be queued for a client.
func (c *FrameCollector) IncStreamDropped() {
	if c == nil {
		return
	}
	c.StreamDropped.Inc()
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *FrameCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		c.observeRPC(fullMethod, start, err)
		return resp, err
	}
}

// StreamServerInterceptor records counts and durations for streaming RPCs.
// The duration covers the whole stream.
func (c *FrameCollector) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		c.observeRPC(fullMethod, start, err)
		return err
	}
}

func (c *FrameCollector) observeRPC(fullMethod string, start time.Time, err error) {
	if c == nil {
		return
	}
	service, method := SplitMethod(fullMethod)
	code := status.Code(err).String()
	if c.RPCRequests != nil {
		c.RPCRequests.WithLabelValues(service, method, code).Inc()
	}
	if c.RPCDurations != nil {
		c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *FrameCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

// register returns the collector already registered under the same
// descriptor when one exists, so collectors can be built more than once
// against the same registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	return register(reg, c, name)
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	return register(reg, g, name)
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	return register(reg, h, name)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	return register(reg, vec, name)
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	return register(reg, vec, name)
}
