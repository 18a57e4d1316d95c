package run

import (
	"context"
	"time"
)

// Status of a simulation run in the journal
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

// Run is the journal record of one simulation.
// It describes a run for observability; port and ship state is never
// restored from it.
type Run struct {
	ID                string
	StartedAt         time.Time
	FinishedAt        *time.Time
	Status            Status
	BerthCount        int
	WarehouseCapacity int
	ShipCount         int
	TotalContainers   int
	PortLevel         int // -1 until the run finishes
}

// IsTerminal reports whether a run in this status can no longer change
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// Finish moves a running run to the terminal status of the summary
func (r *Run) Finish(summary Summary) error {
	if r.Status != StatusRunning || !summary.Status.IsTerminal() {
		return &TransitionError{ID: r.ID, From: r.Status, To: summary.Status}
	}
	finishedAt := summary.FinishedAt
	r.Status = summary.Status
	r.FinishedAt = &finishedAt
	r.PortLevel = summary.PortLevel
	return nil
}

// Duration is the wall time of a finished run, zero while it is running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary is what Finish writes back once a run ends
type Summary struct {
	Status     Status
	FinishedAt time.Time
	PortLevel  int
}

// Repository persists run records
type Repository interface {
	Create(ctx context.Context, r *Run) error
	Finish(ctx context.Context, id string, summary Summary) error
	FindByID(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]*Run, error)
}

// LogEntry is one persisted log line of a run
type LogEntry struct {
	ID        int
	RunID     string
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// LogRepository persists run log lines
type LogRepository interface {
	Log(ctx context.Context, runID, level, message string, metadata map[string]interface{}) error

	// GetLogs returns the newest entries first. A nil level returns every level.
	GetLogs(ctx context.Context, runID string, limit int, level *string) ([]LogEntry, error)
}
