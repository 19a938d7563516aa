package grpcx

import (
	"context"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer returns a server with tracing and request-id propagation installed.
func NewServer(extra ...grpc.ServerOption) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(UnaryServerRequestIDInterceptor()),
	}
	return grpc.NewServer(append(opts, extra...)...)
}

// HealthServer reports serving status for the named services (plus the overall "" service).
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
}

func NewHealthServer(services ...string) *HealthServer {
	srv := NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, name := range services {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	return &HealthServer{srv: srv, health: hs}
}

// Serve runs on lis until ctx is cancelled, then marks everything NOT_SERVING and stops.
func (h *HealthServer) Serve(ctx context.Context, lis net.Listener, logger *slog.Logger) {
	go func() {
		logger.Info("grpc health server starting", "addr", lis.Addr().String())
		if err := h.srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		h.health.Shutdown()
		h.srv.GracefulStop()
	}()
}
