package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		seed       uint64
		visits     int
		lateReject bool
		timeout    time.Duration
		noJournal  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and print its report",
		Long: `Run the configured fleet against the configured port once.

Ships moor, transfer containers and unmoor according to the fleet plan.
The run ends when every ship has finished its visits, when --timeout
elapses, or on Ctrl+C. Either way the report is printed; the command fails
if any container was created or lost.

Examples:
  portsim run
  portsim run --seed 42
  portsim run --visits 0 --timeout 10s
  portsim run --late-reject --no-journal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			scenario := scenarioFromConfig(cfg)
			if cmd.Flags().Changed("seed") {
				for i := range scenario.Ships {
					scenario.Ships[i].Plan.Seed = seed
				}
			}
			if cmd.Flags().Changed("visits") {
				for i := range scenario.Ships {
					scenario.Ships[i].Plan.Visits = visits
				}
			}
			if lateReject {
				scenario.EarlyReject = false
			}

			out, closeOut, err := openLogOutput(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeOut()

			var j *journal
			if cfg.Database.Enabled && !noJournal {
				j, err = openJournal(&cfg.Database)
				if err != nil {
					return err
				}
				defer j.Close()
			}

			executor, err := newRunExecutor(cfg.Logging, out, j, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			report, err := executor.Execute(ctx, scenario)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed for every ship (0 picks one per run)")
	cmd.Flags().IntVar(&visits, "visits", 0, "Visits per ship, 0 runs until stopped")
	cmd.Flags().BoolVar(&lateReject, "late-reject", false, "Check port-side guards only after both warehouse locks are held")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop the run after this long (0 means no limit)")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Do not record the run even if the database is enabled")

	return cmd
}
