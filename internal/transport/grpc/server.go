package grpc_server

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "courseplatform.api"

type Check func(ctx context.Context) error

// HealthServer keeps grpc.health.v1 statuses in line with the backing stores.
type HealthServer struct {
	*health.Server
	checks   map[string]Check
	interval time.Duration
}

func NewHealthServer(checks map[string]Check, interval time.Duration) *HealthServer {
	return &HealthServer{Server: health.NewServer(), checks: checks, interval: interval}
}

// Run probes until ctx is done, then marks everything NOT_SERVING.
func (s *HealthServer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Probe runs every check once and publishes the result.
func (s *HealthServer) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			log.Printf("health check %s failed: %v", name, err)
			healthy = false
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.SetServingStatus("", status)
	s.SetServingStatus(ServiceName, status)
	return healthy
}

func NewServer(hs *HealthServer) *grpc.Server {
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs.Server)
	reflection.Register(grpcServer)
	return grpcServer
}
