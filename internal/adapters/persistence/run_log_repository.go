package persistence

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/andrescamacho/portsim-go/internal/domain/run"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
)

// GormRunLogRepository implements run.LogRepository using GORM
type GormRunLogRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormRunLogRepository creates a new run log repository
// If clock is nil, uses RealClock (production behavior)
func NewGormRunLogRepository(db *gorm.DB, clock shared.Clock) *GormRunLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormRunLogRepository{db: db, clock: clock}
}

// Log writes a log entry to the database
func (r *GormRunLogRepository) Log(ctx context.Context, runID, level, message string, metadata map[string]interface{}) error {
	// Metadata is optional; an unmarshalable map is stored empty
	var metadataJSON string
	if len(metadata) > 0 {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	logEntry := &RunLogModel{
		RunID:     runID,
		Timestamp: r.clock.Now(),
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}

	return r.db.WithContext(ctx).Create(logEntry).Error
}

// GetLogs retrieves logs for a run, newest first, with optional level filtering.
// A limit <= 0 returns every entry.
func (r *GormRunLogRepository) GetLogs(ctx context.Context, runID string, limit int, level *string) ([]run.LogEntry, error) {
	var models []RunLogModel

	query := r.db.WithContext(ctx).Where("run_id = ?", runID)
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	query = query.Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]run.LogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}

		entries[i] = run.LogEntry{
			ID:        model.ID,
			RunID:     model.RunID,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}
	return entries, nil
}
