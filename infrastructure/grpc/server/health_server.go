package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes the standard gRPC health protocol so orchestrators
// can probe the relay without speaking HTTP. It runs as a supervised worker.
type HealthServer struct {
	log     *slog.Logger
	address string
	health  *health.Server
	ready   chan net.Addr
}

func NewHealthServer(log *slog.Logger, address string) *HealthServer {
	return &HealthServer{
		log:     log,
		address: address,
		health:  health.NewServer(),
		ready:   make(chan net.Addr, 1),
	}
}

// Ready yields the bound address once the server listens.
func (s *HealthServer) Ready() <-chan net.Addr {
	return s.ready
}

// Run serves until ctx is cancelled, then reports NOT_SERVING and stops gracefully.
func (s *HealthServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(s.log)))
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting gRPC health server", "address", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- err
		}
		close(errChan)
	}()
	select {
	case s.ready <- listener.Addr():
	default:
	}

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		srv.GracefulStop()
		return nil
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("gRPC health server error: %w", err)
	}
}
