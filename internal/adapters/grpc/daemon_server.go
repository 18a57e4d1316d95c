package grpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/infrastructure/pidfile"
)

// RunFunc performs one simulation run, returning when it completes or ctx is done
type RunFunc func(ctx context.Context) error

// DaemonConfig configures a DaemonServer
type DaemonConfig struct {
	PIDFile         *pidfile.PIDFile // optional
	Health          *HealthServer
	MetricsServer   *http.Server // optional
	RunInterval     time.Duration
	ShutdownTimeout time.Duration
}

// DaemonServer runs simulations back to back until SIGINT/SIGTERM, exposing
// gRPC health and, optionally, Prometheus metrics meanwhile.
type DaemonServer struct {
	cfg          DaemonConfig
	run          RunFunc
	shutdownChan chan os.Signal
}

// NewDaemonServer creates a new daemon server instance
func NewDaemonServer(cfg DaemonConfig, run RunFunc) (*DaemonServer, error) {
	if cfg.Health == nil {
		return nil, errors.New("health server is required")
	}
	if run == nil {
		return nil, errors.New("run function is required")
	}

	server := &DaemonServer{
		cfg:          cfg,
		run:          run,
		shutdownChan: make(chan os.Signal, 1),
	}

	// Setup signal handling
	signal.Notify(server.shutdownChan, os.Interrupt, syscall.SIGTERM)

	return server, nil
}

// Start serves until a shutdown signal arrives or ctx is done
func (s *DaemonServer) Start(ctx context.Context) error {
	defer signal.Stop(s.shutdownChan)

	if s.cfg.PIDFile != nil {
		if err := s.cfg.PIDFile.Acquire(); err != nil {
			return err
		}
		defer s.cfg.PIDFile.Release()
	}

	logger := shared.LoggerFromContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-s.shutdownChan:
			logger.Log(shared.LevelInfo, fmt.Sprintf("shutdown signal received (%s), stopping daemon", sig), nil)
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.cfg.Health.Serve(gctx)
	})

	if s.cfg.MetricsServer != nil {
		g.Go(func() error {
			return s.serveMetrics(gctx)
		})
	}

	g.Go(func() error {
		defer s.cfg.Health.SetServing(false)
		return s.runLoop(gctx)
	})

	logger.Log(shared.LevelInfo, fmt.Sprintf("daemon health server listening on %s", s.cfg.Health.Addr()), nil)
	return g.Wait()
}

// runLoop runs simulations until ctx is done. A failed run is logged and
// the loop keeps going.
func (s *DaemonServer) runLoop(ctx context.Context) error {
	logger := shared.LoggerFromContext(ctx)

	for ctx.Err() == nil {
		s.cfg.Health.SetServing(true)
		if err := s.run(ctx); err != nil && ctx.Err() == nil {
			logger.Log(shared.LevelError, fmt.Sprintf("run failed: %v", err), nil)
		}

		select {
		case <-ctx.Done():
		case <-time.After(s.cfg.RunInterval):
		}
	}
	return nil
}

func (s *DaemonServer) serveMetrics(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.cfg.MetricsServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.cfg.MetricsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		<-errChan
		return nil
	}
}
