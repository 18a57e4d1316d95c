package cli

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/portsim-go/internal/adapters/grpc"
	"github.com/andrescamacho/portsim-go/internal/adapters/metrics"
	"github.com/andrescamacho/portsim-go/internal/application/simulation"
	"github.com/andrescamacho/portsim-go/internal/domain/port"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/infrastructure/config"
	"github.com/andrescamacho/portsim-go/internal/infrastructure/pidfile"
)

const portSampleInterval = 5 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run simulations back to back as a daemon",
		Long: `Run the configured scenario repeatedly until SIGINT or SIGTERM.

While serving, gRPC health (grpc.health.v1, service "portsim.Port") is
exposed on daemon.health_address and, with metrics.enabled, Prometheus
metrics on metrics.host:metrics.port at metrics.path. Only one instance
per PID file may run.

Examples:
  portsim serve
  PS_METRICS_ENABLED=true portsim serve
  portsim serve --config /etc/portsim/portsim.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out, closeOut, err := openLogOutput(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeOut()

			var j *journal
			if cfg.Database.Enabled {
				j, err = openJournal(&cfg.Database)
				if err != nil {
					return err
				}
				defer j.Close()
			}

			ctx := context.Background()
			daemonLogger := simulation.NewRunLogger("daemon", cfg.Logging.Level, cfg.Logging.Format, out, nil)
			defer daemonLogger.Close()
			ctx = shared.WithLogger(ctx, daemonLogger)

			// The port of the current run, sampled for berth gauges
			var current atomic.Pointer[port.Port]

			var (
				recorder      port.Recorder
				metricsServer *http.Server
			)
			if cfg.Metrics.Enabled {
				portCollector, err := setupMetrics(&current)
				if err != nil {
					return err
				}
				portCollector.Start(ctx, portSampleInterval)
				defer portCollector.Stop()

				recorder = portCollector
				metricsServer = newMetricsServer(cfg.Metrics)
				daemonLogger.Log(shared.LevelInfo, fmt.Sprintf("metrics listening on %s%s", metricsServer.Addr, cfg.Metrics.Path), nil)
			}

			executor, err := newRunExecutor(cfg.Logging, out, j, recorder)
			if err != nil {
				return err
			}

			health, err := grpcAdapter.NewHealthServer(cfg.Daemon.HealthAddress)
			if err != nil {
				return err
			}

			scenario := scenarioFromConfig(cfg)
			runOnce := func(ctx context.Context) error {
				observe := simulation.WithPortObserver(func(p *port.Port) { current.Store(p) })
				_, err := executor.Execute(ctx, scenario, observe)
				return err
			}

			daemon, err := grpcAdapter.NewDaemonServer(grpcAdapter.DaemonConfig{
				PIDFile:         pidfile.New(cfg.Daemon.PIDFile),
				Health:          health,
				MetricsServer:   metricsServer,
				RunInterval:     cfg.Daemon.RunInterval,
				ShutdownTimeout: cfg.Daemon.ShutdownTimeout,
			}, runOnce)
			if err != nil {
				health.Close()
				return err
			}

			return daemon.Start(ctx)
		},
	}

	return cmd
}

// setupMetrics initialises the global registry with the run and port
// collectors. The port collector samples whatever port current points at.
func setupMetrics(current *atomic.Pointer[port.Port]) (*metrics.PortMetricsCollector, error) {
	metrics.InitRegistry()

	runCollector := metrics.NewRunMetricsCollector()
	if err := runCollector.Register(); err != nil {
		return nil, fmt.Errorf("failed to register run metrics: %w", err)
	}
	metrics.SetGlobalRunCollector(runCollector)

	portCollector := metrics.NewPortMetricsCollector(func() metrics.PortSample {
		p := current.Load()
		if p == nil {
			return metrics.PortSample{}
		}
		return metrics.PortSample{FreeBerths: p.FreeBerths()}
	})
	if err := portCollector.Register(); err != nil {
		return nil, fmt.Errorf("failed to register port metrics: %w", err)
	}
	return portCollector, nil
}

func newMetricsServer(cfg config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
