package entity

import (
	"database/sql"
	"time"
)

// CollectionRun is one recorded reconciliation pass, used by the health check
// to detect stalled or degraded actual-data collection.
type CollectionRun struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	EventsProcessed      int            `json:"events_processed"`
	EventsUpdated        int            `json:"events_updated"`
	Success              bool           `json:"success"`
	ExecutionTimeSeconds float64        `json:"execution_time_seconds"`
	ErrorMessage         sql.NullString `json:"error_message"`
	CreatedAt            time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
}

func (CollectionRun) TableName() string {
	return "collection_runs"
}
