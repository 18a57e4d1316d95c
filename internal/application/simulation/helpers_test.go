package simulation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/andrescamacho/portsim-go/internal/domain/run"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memoryRuns is an in-memory run.Repository
type memoryRuns struct {
	mu        sync.Mutex
	runs      map[string]*run.Run
	createErr error
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: make(map[string]*run.Run)}
}

func (m *memoryRuns) Create(ctx context.Context, r *run.Run) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *r
	m.runs[r.ID] = &copied
	return nil
}

func (m *memoryRuns) Finish(ctx context.Context, id string, summary run.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return &run.NotFoundError{ID: id}
	}
	return r.Finish(summary)
}

func (m *memoryRuns) FindByID(ctx context.Context, id string) (*run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, &run.NotFoundError{ID: id}
	}
	copied := *r
	return &copied, nil
}

func (m *memoryRuns) List(ctx context.Context, limit int) ([]*run.Run, error) {
	return nil, errors.New("not implemented")
}

// memoryLogs is an in-memory run.LogRepository
type memoryLogs struct {
	mu      sync.Mutex
	entries []run.LogEntry
}

func (m *memoryLogs) Log(ctx context.Context, runID, level, message string, metadata map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, run.LogEntry{ID: len(m.entries) + 1, RunID: runID, Level: level, Message: message, Metadata: metadata})
	return nil
}

func (m *memoryLogs) GetLogs(ctx context.Context, runID string, limit int, level *string) ([]run.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []run.LogEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.RunID == runID && (level == nil || e.Level == *level) {
			out = append(out, e)
		}
	}
	return out, nil
}
