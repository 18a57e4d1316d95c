package simulation

import (
	"context"
	"fmt"

	"github.com/andrescamacho/portsim-go/internal/application/common"
)

// RunSimulationCommand asks for one simulation run
type RunSimulationCommand struct {
	Scenario Scenario
	Options  []Option
}

// RunSimulationResponse carries the report of a run. Report is set even
// when Err is returned by the handler, unless the run never started.
type RunSimulationResponse struct {
	Report *Report
}

// RunSimulationHandler handles RunSimulationCommand
type RunSimulationHandler struct {
	defaults []Option
}

// NewRunSimulationHandler creates a handler whose options are applied before
// the per-command options
func NewRunSimulationHandler(defaults ...Option) *RunSimulationHandler {
	return &RunSimulationHandler{defaults: defaults}
}

// Handle executes the run simulation command
func (h *RunSimulationHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RunSimulationCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	opts := append(append([]Option{}, h.defaults...), cmd.Options...)
	report, err := Run(ctx, cmd.Scenario, opts...)
	return &RunSimulationResponse{Report: report}, err
}
