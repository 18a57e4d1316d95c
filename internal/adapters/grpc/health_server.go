package grpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PortService is the health service name reported for the simulated port
const PortService = "portsim.Port"

// HealthServer exposes grpc.health.v1 for the serve daemon
type HealthServer struct {
	listener net.Listener
	server   *grpc.Server
	health   *health.Server
}

// NewHealthServer listens on address (host:port; port 0 picks a free one)
func NewHealthServer(address string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	hs := health.NewServer()
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	// Not serving until the first run starts
	hs.SetServingStatus(PortService, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{listener: listener, server: server, health: hs}, nil
}

// Addr returns the bound listener address
func (s *HealthServer) Addr() net.Addr { return s.listener.Addr() }

// SetServing reports the port service, and the server as a whole, as
// serving or not serving
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(PortService, status)
}

// Serve blocks serving health checks until ctx is done, then stops gracefully
func (s *HealthServer) Serve(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("gRPC health server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.health.Shutdown()
		s.server.GracefulStop()
		<-errChan
		return nil
	}
}

// Close stops the server immediately and releases the listener. Only needed
// when Serve was never called.
func (s *HealthServer) Close() {
	s.server.Stop()
	_ = s.listener.Close()
}
