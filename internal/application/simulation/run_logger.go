package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andrescamacho/portsim-go/internal/domain/run"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
)

// Log output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	journalBuffer  = 1024
	journalTimeout = 5 * time.Second
)

type journalEntry struct {
	level    string
	message  string
	metadata map[string]interface{}
}

// RunLogger is the shared.Logger for one run. It prints lines at or above
// its level and, when a log repository is set, persists them to the run
// journal from a background goroutine.
type RunLogger struct {
	runID   string
	minRank int
	format  string
	out     *log.Logger
	repo    run.LogRepository

	mu      sync.RWMutex
	closed  bool
	entries chan journalEntry
	done    chan struct{}
}

// NewRunLogger creates a logger for runID. A nil out prints through the
// standard logger; a nil repo disables persistence.
func NewRunLogger(runID, level, format string, out *log.Logger, repo run.LogRepository) *RunLogger {
	if out == nil {
		out = log.Default()
	}
	l := &RunLogger{
		runID:   runID,
		minRank: shared.LevelRank(strings.ToUpper(level)),
		format:  strings.ToLower(format),
		out:     out,
		repo:    repo,
		done:    make(chan struct{}),
	}
	if repo != nil {
		l.entries = make(chan journalEntry, journalBuffer)
		go l.persist()
	} else {
		close(l.done)
	}
	return l
}

// RunID returns the run this logger writes for
func (l *RunLogger) RunID() string { return l.runID }

// Log prints and journals a line if its level passes the filter
func (l *RunLogger) Log(level, message string, metadata map[string]interface{}) {
	if shared.LevelRank(level) < l.minRank {
		return
	}

	l.out.Print(l.render(level, message, metadata))

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.entries == nil || l.closed {
		return
	}
	l.entries <- journalEntry{level: level, message: message, metadata: metadata}
}

// Close stops accepting lines and waits until every queued line is written
func (l *RunLogger) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		if l.entries != nil {
			close(l.entries)
		}
	}
	l.mu.Unlock()
	<-l.done
}

func (l *RunLogger) persist() {
	defer close(l.done)
	for entry := range l.entries {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		if err := l.repo.Log(ctx, l.runID, entry.level, entry.message, entry.metadata); err != nil {
			l.out.Printf("[%s] WARN failed to journal log line: %v", l.runID, err)
		}
		cancel()
	}
}

func (l *RunLogger) render(level, message string, metadata map[string]interface{}) string {
	if l.format == FormatJSON {
		line := map[string]interface{}{
			"run_id":  l.runID,
			"level":   level,
			"message": message,
		}
		if len(metadata) > 0 {
			line["metadata"] = metadata
		}
		data, err := json.Marshal(line)
		if err == nil {
			return string(data)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s", l.runID, level, message)
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, metadata[k])
	}
	return b.String()
}
