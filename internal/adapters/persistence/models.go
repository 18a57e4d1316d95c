package persistence

import (
	"time"
)

// RunModel represents the runs table
// NOTE: only run metadata is stored; warehouses and berths are never persisted
type RunModel struct {
	ID                string     `gorm:"column:id;primaryKey;not null"`
	StartedAt         time.Time  `gorm:"column:started_at;not null"`
	FinishedAt        *time.Time `gorm:"column:finished_at"`
	Status            string     `gorm:"column:status;not null;default:'RUNNING'"`
	BerthCount        int        `gorm:"column:berth_count;not null"`
	WarehouseCapacity int        `gorm:"column:warehouse_capacity;not null"`
	ShipCount         int        `gorm:"column:ship_count;not null"`
	TotalContainers   int        `gorm:"column:total_containers;not null"`
	PortLevel         int        `gorm:"column:port_level;not null;default:-1"`
}

func (RunModel) TableName() string {
	return "runs"
}

// RunLogModel represents the run_logs table
type RunLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string    `gorm:"column:run_id;not null;index"`
	Run       *RunModel `gorm:"foreignKey:RunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON as text
}

func (RunLogModel) TableName() string {
	return "run_logs"
}
