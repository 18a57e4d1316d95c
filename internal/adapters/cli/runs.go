package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/portsim-go/internal/domain/run"
)

// NewRunsCommand creates the runs command with subcommands
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect journaled runs",
		Long: `Inspect runs recorded in the run journal (database.enabled must be true
when the runs were executed).

Examples:
  portsim runs list
  portsim runs list --limit 5
  portsim runs show run-1a2b3c4d`,
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())

	return cmd
}

// newRunsListCommand lists recent runs, newest first
func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			j, err := openJournal(&cfg.Database)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.runs.List(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found")
				return nil
			}

			fmt.Fprintf(out, "%-14s %-10s %-19s %6s %6s %10s %6s\n", "RUN", "STATUS", "STARTED", "BERTHS", "SHIPS", "CONTAINERS", "PORT")
			for _, r := range runs {
				fmt.Fprintf(out, "%-14s %-10s %-19s %6d %6d %10d %6s\n",
					r.ID,
					statusColor(r.Status).Sprintf("%-10s", r.Status),
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					r.BerthCount,
					r.ShipCount,
					r.TotalContainers,
					portLevel(r),
				)
			}
			fmt.Fprintf(out, "\nTotal: %d runs\n", len(runs))

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs (0 lists all)")

	return cmd
}

// newRunsShowCommand prints one run
func newRunsShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			j, err := openJournal(&cfg.Database)
			if err != nil {
				return err
			}
			defer j.Close()

			r, err := j.runs.FindByID(context.Background(), args[0])
			if err != nil {
				var notFound *run.NotFoundError
				if errors.As(err, &notFound) {
					return fmt.Errorf("no run %s in the journal", args[0])
				}
				return fmt.Errorf("failed to get run: %w", err)
			}

			fmt.Fprintf(out, "Run %s: %s\n", r.ID, statusColor(r.Status).Sprint(r.Status))
			fmt.Fprintf(out, "  Started:    %s\n", r.StartedAt.Local().Format(time.RFC3339))
			if r.FinishedAt != nil {
				fmt.Fprintf(out, "  Finished:   %s (%s)\n", r.FinishedAt.Local().Format(time.RFC3339), r.Duration().Round(time.Millisecond))
			}
			fmt.Fprintf(out, "  Berths:     %d\n", r.BerthCount)
			fmt.Fprintf(out, "  Warehouse:  %d\n", r.WarehouseCapacity)
			fmt.Fprintf(out, "  Ships:      %d\n", r.ShipCount)
			fmt.Fprintf(out, "  Containers: %d\n", r.TotalContainers)
			fmt.Fprintf(out, "  Port level: %s\n", portLevel(r))

			return nil
		},
	}

	return cmd
}

// portLevel renders the final port level, which is unknown while running
func portLevel(r *run.Run) string {
	if r.PortLevel < 0 {
		return "-"
	}
	return fmt.Sprintf("%d", r.PortLevel)
}
