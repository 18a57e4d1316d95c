package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/portsim-go/internal/domain/run"
)

// GormRunRepository implements run.Repository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GORM-based run repository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Create inserts a new run record
func (r *GormRunRepository) Create(ctx context.Context, entity *run.Run) error {
	model := &RunModel{
		ID:                entity.ID,
		StartedAt:         entity.StartedAt,
		FinishedAt:        entity.FinishedAt,
		Status:            string(entity.Status),
		BerthCount:        entity.BerthCount,
		WarehouseCapacity: entity.WarehouseCapacity,
		ShipCount:         entity.ShipCount,
		TotalContainers:   entity.TotalContainers,
		PortLevel:         entity.PortLevel,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finish records the final status and port level of a run. Only a
// RUNNING run can be finished.
func (r *GormRunRepository) Finish(ctx context.Context, id string, summary run.Summary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RunModel
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &run.NotFoundError{ID: id}
			}
			return fmt.Errorf("failed to load run: %w", err)
		}

		entity := modelToRun(&model)
		if err := entity.Finish(summary); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":      string(entity.Status),
			"finished_at": *entity.FinishedAt,
			"port_level":  entity.PortLevel,
		}
		if err := tx.Model(&RunModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to finish run: %w", err)
		}
		return nil
	})
}

// FindByID loads one run
func (r *GormRunRepository) FindByID(ctx context.Context, id string) (*run.Run, error) {
	var model RunModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &run.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	return modelToRun(&model), nil
}

// List returns the most recent runs first. A limit <= 0 returns every run.
func (r *GormRunRepository) List(ctx context.Context, limit int) ([]*run.Run, error) {
	var models []RunModel

	query := r.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*run.Run, len(models))
	for i := range models {
		runs[i] = modelToRun(&models[i])
	}
	return runs, nil
}

func modelToRun(model *RunModel) *run.Run {
	return &run.Run{
		ID:                model.ID,
		StartedAt:         model.StartedAt,
		FinishedAt:        model.FinishedAt,
		Status:            run.Status(model.Status),
		BerthCount:        model.BerthCount,
		WarehouseCapacity: model.WarehouseCapacity,
		ShipCount:         model.ShipCount,
		TotalContainers:   model.TotalContainers,
		PortLevel:         model.PortLevel,
	}
}
