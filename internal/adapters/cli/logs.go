package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewLogsCommand retrieves run logs from the journal
func NewLogsCommand() *cobra.Command {
	var (
		limit int
		level string
	)

	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Get logs from a run",
		Long: `Retrieve the journaled log lines of a run.

Examples:
  portsim logs run-1a2b3c4d
  portsim logs run-1a2b3c4d --limit 50
  portsim logs run-1a2b3c4d --level WARN`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			runID := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			j, err := openJournal(&cfg.Database)
			if err != nil {
				return err
			}
			defer j.Close()

			var levelPtr *string
			if level != "" {
				upper := strings.ToUpper(level)
				levelPtr = &upper
			}

			logs, err := j.logs.GetLogs(context.Background(), runID, limit, levelPtr)
			if err != nil {
				return fmt.Errorf("failed to get logs: %w", err)
			}

			if len(logs) == 0 {
				fmt.Fprintln(out, "No logs found for run:", runID)
				return nil
			}

			// Display logs in reverse order (oldest first)
			for i := len(logs) - 1; i >= 0; i-- {
				entry := logs[i]
				fmt.Fprintf(out, "[%s] [%-5s] %s\n",
					entry.Timestamp.Local().Format("2006-01-02 15:04:05.000"),
					entry.Level,
					entry.Message,
				)
			}

			fmt.Fprintf(out, "\nTotal: %d log entries\n", len(logs))

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of log entries")
	cmd.Flags().StringVar(&level, "level", "", "Filter by log level (DEBUG, INFO, WARN, ERROR)")

	return cmd
}
