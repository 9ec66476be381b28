package entity

import (
	"time"
)

// Indicator is one timestamped observation of an event's numeric fields.
// Rows are append-only history; only the actual-value fields are ever
// back-filled onto an existing row, by the reconciliation engine.
type Indicator struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	EventID            uint       `json:"event_id" gorm:"index"`
	PreviousValue      *float64   `json:"previous_value"`
	ForecastValue      *float64   `json:"forecast_value"`
	ActualValue        *float64   `json:"actual_value"`
	ActualCollectedAt  *time.Time `json:"actual_collected_at"`
	IsActualAvailable  bool       `json:"is_actual_available" gorm:"default:false"`
	TimestampCollected time.Time  `json:"timestamp_collected" gorm:"autoCreateTime;index"`
}

func (Indicator) TableName() string {
	return "indicators"
}
