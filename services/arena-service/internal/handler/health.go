package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/services/arena-service/internal/events"
)

// IngestHealthService is the health service name that tracks the
// upstream subscription.
const IngestHealthService = "arena.ingest"

// NewHealthServer starts with the ingest service NOT_SERVING; the
// pipeline flips it once subscribed.
func NewHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(IngestHealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// IngestHealthObserver is a pipeline state observer.
func IngestHealthObserver(hs *health.Server) func(events.State) {
	return func(s events.State) {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if s == events.StateSubscribed {
			status = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus(IngestHealthService, status)
	}
}

func NewGRPCServer(hs *health.Server, log *logger.Logger) *grpc.Server {
	log = log.With("component", "grpc")

	server := grpc.NewServer(
		grpc.UnaryInterceptor(func(
			ctx context.Context,
			req interface{},
			info *grpc.UnaryServerInfo,
			handler grpc.UnaryHandler,
		) (interface{}, error) {
			start := time.Now().UTC()
			resp, err := handler(ctx, req)
			log.Debug("gRPC call", "method", info.FullMethod, "duration", time.Since(start), "error", err)
			return resp, err
		}),
	)

	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	return server
}
