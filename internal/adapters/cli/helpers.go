package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"gorm.io/gorm"

	"github.com/andrescamacho/portsim-go/internal/adapters/metrics"
	"github.com/andrescamacho/portsim-go/internal/adapters/persistence"
	"github.com/andrescamacho/portsim-go/internal/application/common"
	"github.com/andrescamacho/portsim-go/internal/application/ship"
	"github.com/andrescamacho/portsim-go/internal/application/simulation"
	"github.com/andrescamacho/portsim-go/internal/domain/port"
	"github.com/andrescamacho/portsim-go/internal/domain/run"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/infrastructure/config"
	"github.com/andrescamacho/portsim-go/internal/infrastructure/database"
	"github.com/andrescamacho/portsim-go/pkg/utils"
)

// loadConfig loads configuration honouring the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// scenarioFromConfig translates port and fleet configuration into a scenario.
// Every ship shares the fleet-wide plan.
func scenarioFromConfig(cfg *config.Config) simulation.Scenario {
	plan := ship.Plan{
		Visits:            cfg.Fleet.Visits,
		TransfersPerVisit: cfg.Fleet.TransfersPerVisit,
		MaxUnits:          cfg.Fleet.MaxUnits,
		Rate:              cfg.Fleet.Rate,
		Seed:              cfg.Fleet.Seed,
	}

	ships := make([]simulation.ShipSpec, 0, len(cfg.Fleet.Ships))
	for _, s := range cfg.Fleet.Ships {
		ships = append(ships, simulation.ShipSpec{
			Name:       s.Name,
			Capacity:   s.Capacity,
			Containers: s.Containers,
			Plan:       plan,
		})
	}

	return simulation.Scenario{
		BerthCount:        cfg.Port.Berths,
		WarehouseCapacity: cfg.Port.WarehouseCapacity,
		PortContainers:    cfg.Port.InitialContainers,
		LockTimeout:       cfg.Port.LockTimeout,
		EarlyReject:       cfg.Port.EarlyReject,
		ShipContainerBase: cfg.Fleet.ContainerBase,
		Ships:             ships,
	}
}

// openLogOutput returns the logger run lines are printed through and a
// function closing the underlying file, if any
func openLogOutput(cfg config.LoggingConfig) (*log.Logger, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Output {
	case "stderr":
		return log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds), noop, nil
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return log.New(f, "", log.LstdFlags|log.Lmicroseconds), f.Close, nil
	default:
		return log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds), noop, nil
	}
}

// journal bundles the run journal repositories
type journal struct {
	db   *gorm.DB
	runs *persistence.GormRunRepository
	logs *persistence.GormRunLogRepository
}

// openJournal connects to the journal database and migrates its tables
func openJournal(cfg *config.DatabaseConfig) (*journal, error) {
	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &journal{
		db:   db,
		runs: persistence.NewGormRunRepository(db),
		logs: persistence.NewGormRunLogRepository(db, shared.NewRealClock()),
	}, nil
}

func (j *journal) Close() error {
	return database.Close(j.db)
}

// runExecutor dispatches simulation runs through the mediator
type runExecutor struct {
	logging  config.LoggingConfig
	out      *log.Logger
	journal  *journal // optional
	recorder port.Recorder
	mediator common.Mediator
}

func newRunExecutor(logging config.LoggingConfig, out *log.Logger, j *journal, recorder port.Recorder) (*runExecutor, error) {
	m := common.NewMediator()
	m.Use(common.LoggingBehavior(shared.NewRealClock()))
	if err := common.RegisterHandler[*simulation.RunSimulationCommand](m, simulation.NewRunSimulationHandler()); err != nil {
		return nil, fmt.Errorf("failed to register run handler: %w", err)
	}
	return &runExecutor{
		logging:  logging,
		out:      out,
		journal:  j,
		recorder: recorder,
		mediator: m,
	}, nil
}

// Execute performs one run with its own run logger. The report is returned
// alongside any error once the run has started.
func (e *runExecutor) Execute(ctx context.Context, scenario simulation.Scenario, extra ...simulation.Option) (*simulation.Report, error) {
	runID := utils.GenerateRunID("run")
	opts := []simulation.Option{simulation.WithRunID(runID)}

	var logRepo run.LogRepository
	if e.journal != nil {
		logRepo = e.journal.logs
		opts = append(opts, simulation.WithRunRepository(e.journal.runs))
	}
	if e.recorder != nil {
		opts = append(opts, simulation.WithRecorder(e.recorder))
	}
	opts = append(opts, extra...)

	logger := simulation.NewRunLogger(runID, e.logging.Level, e.logging.Format, e.out, logRepo)
	defer logger.Close()
	ctx = shared.WithLogger(ctx, logger)

	resp, err := e.mediator.Send(ctx, &simulation.RunSimulationCommand{Scenario: scenario, Options: opts})

	var report *simulation.Report
	if r, ok := resp.(*simulation.RunSimulationResponse); ok {
		report = r.Report
	}
	if report != nil {
		metrics.RecordRunCompletion(string(report.Status), report.Duration, report.Conserved())
	}
	return report, err
}

// printReport writes the run summary to w
func printReport(w io.Writer, report *simulation.Report) {
	fmt.Fprintf(w, "Run %s: %s\n", report.RunID, statusColor(report.Status).Sprint(report.Status))
	fmt.Fprintf(w, "  Duration:   %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Berths:     %d\n", report.BerthCount)
	fmt.Fprintf(w, "  Port:       %d/%d containers\n", report.PortLevel, report.PortCapacity)

	conservation := color.New(color.FgGreen).Sprintf("%d -> %d", report.TotalBefore, report.TotalAfter)
	if !report.Conserved() {
		conservation = color.New(color.FgRed, color.Bold).Sprintf("%d -> %d (BROKEN)", report.TotalBefore, report.TotalAfter)
	}
	fmt.Fprintf(w, "  Containers: %s\n", conservation)

	if len(report.Ships) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-12s %8s %8s %9s %7s %8s %9s\n", "SHIP", "CARGO", "VISITS", "UNLOADED", "LOADED", "REFUSED", "ABANDONED")
	for _, s := range report.Ships {
		fmt.Fprintf(w, "  %-12s %8s %8d %9d %7d %8d %9d\n",
			truncate(s.Name, 12),
			fmt.Sprintf("%d/%d", s.Cargo, s.Capacity),
			s.Stats.Visits,
			s.Stats.Unloaded,
			s.Stats.Loaded,
			s.Stats.Refused,
			s.Stats.Abandoned,
		)
	}
}

func statusColor(status run.Status) *color.Color {
	switch status {
	case run.StatusCompleted:
		return color.New(color.FgHiGreen)
	case run.StatusCancelled:
		return color.New(color.FgYellow)
	case run.StatusFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlue)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
