// Package grpc_control exposes the data service to orchestration tooling over
// gRPC. It serves the standard grpc.health.v1 protocol, reporting SERVING for
// the data service once its store is ready.
package grpc_control

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"series-explorer/src/interfaces"
	"series-explorer/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name clients query for the data service.
const ServiceName = "series.DataService"

// ControlService wraps a gRPC server carrying the health service.
type ControlService struct {
	Store  interfaces.ISeriesStore
	Logger *logger.Logger
	server *grpc.Server
	health *health.Server
	once   sync.Once
}

// -----------------------------------------------------------------------------

// NewControlService creates the service. Both the overall status and the data
// service start as NOT_SERVING.
func NewControlService(store interfaces.ISeriesStore, log *logger.Logger) *ControlService {
	s := &ControlService{
		Store:  store,
		Logger: log,
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.server, s.health)
	return s
}

// -----------------------------------------------------------------------------

// Refresh pings the store and publishes the result.
func (s *ControlService) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.Store.Ping(ctx); err != nil {
		s.Logger.Warning("Store ping failed: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// -----------------------------------------------------------------------------

// Watch refreshes the status every interval until ctx is done.
func (s *ControlService) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// Serve blocks serving on lis until Stop is called.
func (s *ControlService) Serve(lis net.Listener) error {
	s.Logger.Info("Starting gRPC health service on %s", lis.Addr())
	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// ListenAndServe listens on the given TCP port and serves.
func (s *ControlService) ListenAndServe(host string, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return s.Serve(lis)
}

// -----------------------------------------------------------------------------

// Stop marks everything NOT_SERVING and drains in-flight RPCs.
func (s *ControlService) Stop() {
	s.once.Do(func() {
		s.health.Shutdown()
		s.server.GracefulStop()
	})
}
