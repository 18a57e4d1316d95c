package steps

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/andrescamacho/portsim-go/internal/adapters/persistence"
	"github.com/andrescamacho/portsim-go/internal/application/ship"
	"github.com/andrescamacho/portsim-go/internal/application/simulation"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/test/helpers"
)

// simulationContext holds state for journaled simulation scenarios
type simulationContext struct {
	scenario simulation.Scenario
	runs     *persistence.GormRunRepository
	logs     *persistence.GormRunLogRepository
	report   *simulation.Report
	err      error
}

func (sc *simulationContext) reset() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}
	sc.scenario = simulation.Scenario{}
	sc.runs = persistence.NewGormRunRepository(helpers.SharedTestDB)
	sc.logs = persistence.NewGormRunLogRepository(helpers.SharedTestDB, shared.NewRealClock())
	sc.report = nil
	sc.err = nil
	return nil
}

// ============================================================================
// Setup Steps
// ============================================================================

func (sc *simulationContext) aScenarioWith(table *godog.Table) error {
	if len(table.Rows) != 2 {
		return fmt.Errorf("expected a header row and one data row, got %d rows", len(table.Rows))
	}
	row := table.Rows[1]

	values := make(map[string]int)
	for _, column := range []string{"berths", "capacity", "port containers", "ships", "ship capacity", "ship containers", "visits", "seed"} {
		v, err := intCell(table, row, column)
		if err != nil {
			return err
		}
		values[column] = v
	}

	plan := ship.Plan{
		Visits:            values["visits"],
		TransfersPerVisit: 3,
		MaxUnits:          10,
		Seed:              uint64(values["seed"]),
	}

	sc.scenario = simulation.Scenario{
		BerthCount:        values["berths"],
		WarehouseCapacity: values["capacity"],
		PortContainers:    values["port containers"],
		EarlyReject:       true,
		// Ship ids start above every id the port could ever hand out
		ShipContainerBase: values["capacity"],
	}
	for i := 0; i < values["ships"]; i++ {
		sc.scenario.Ships = append(sc.scenario.Ships, simulation.ShipSpec{
			Name:       fmt.Sprintf("Ship%d", i+1),
			Capacity:   values["ship capacity"],
			Containers: values["ship containers"],
			Plan:       plan,
		})
	}
	return sc.scenario.Validate()
}

// ============================================================================
// Action Steps
// ============================================================================

func (sc *simulationContext) theScenarioRunsWithTheJournal() error {
	runID := "run-bdd"
	logger := simulation.NewRunLogger(runID, shared.LevelInfo, simulation.FormatText, log.New(io.Discard, "", 0), sc.logs)
	ctx := shared.WithLogger(context.Background(), logger)

	sc.report, sc.err = simulation.Run(ctx, sc.scenario,
		simulation.WithRunID(runID),
		simulation.WithRunRepository(sc.runs))
	logger.Close()
	return nil
}

// ============================================================================
// Assertion Steps
// ============================================================================

func (sc *simulationContext) theRunFinishesWithStatus(status string) error {
	if sc.err != nil {
		return fmt.Errorf("run failed: %w", sc.err)
	}
	if string(sc.report.Status) != status {
		return fmt.Errorf("expected status %s, got %s", status, sc.report.Status)
	}
	return nil
}

func (sc *simulationContext) containersExistAfterTheRun(n int) error {
	if sc.report.TotalBefore != n || sc.report.TotalAfter != n {
		return fmt.Errorf("expected %d containers before and after, got %d and %d",
			n, sc.report.TotalBefore, sc.report.TotalAfter)
	}
	return nil
}

func (sc *simulationContext) theJournalRecordsTheRunAs(status string) error {
	r, err := sc.runs.FindByID(context.Background(), sc.report.RunID)
	if err != nil {
		return err
	}
	if string(r.Status) != status {
		return fmt.Errorf("journal has status %s, expected %s", r.Status, status)
	}
	if r.FinishedAt == nil {
		return fmt.Errorf("journal has no finish time")
	}
	if r.PortLevel != sc.report.PortLevel {
		return fmt.Errorf("journal has port level %d, report has %d", r.PortLevel, sc.report.PortLevel)
	}
	return nil
}

func (sc *simulationContext) theJournalHoldsALogLineStartingWith(level, prefix string) error {
	entries, err := sc.logs.GetLogs(context.Background(), sc.report.RunID, 0, &level)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Message, prefix) {
			return nil
		}
	}
	return fmt.Errorf("no %s line starting with %q among %d entries", level, prefix, len(entries))
}

// intCell reads an integer cell by its header name
func intCell(table *godog.Table, row *messages.PickleTableRow, column string) (int, error) {
	for i, header := range table.Rows[0].Cells {
		if header.Value == column && i < len(row.Cells) {
			v, err := strconv.Atoi(strings.TrimSpace(row.Cells[i].Value))
			if err != nil {
				return 0, fmt.Errorf("column %q: %w", column, err)
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("missing column %q", column)
}

// InitializeSimulationScenario registers journaled simulation steps
func InitializeSimulationScenario(ctx *godog.ScenarioContext) {
	sc := &simulationContext{}

	ctx.Before(func(c context.Context, s *godog.Scenario) (context.Context, error) {
		return c, sc.reset()
	})

	ctx.Step(`^a scenario with:$`, sc.aScenarioWith)
	ctx.Step(`^the scenario runs with the journal$`, sc.theScenarioRunsWithTheJournal)
	ctx.Step(`^the run finishes with status "([^"]*)"$`, sc.theRunFinishesWithStatus)
	ctx.Step(`^(\d+) containers exist after the run$`, sc.containersExistAfterTheRun)
	ctx.Step(`^the journal records the run as "([^"]*)"$`, sc.theJournalRecordsTheRunAs)
	ctx.Step(`^the journal holds an? "([^"]*)" log line starting with "([^"]*)"$`, sc.theJournalHoldsALogLineStartingWith)
}
