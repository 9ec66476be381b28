package dto

import "time"

// CalendarEvent is one entry from a fetched calendar snapshot.
type CalendarEvent struct {
	Currency          string    `json:"currency"`
	EventName         string    `json:"event_name"`
	ScheduledDatetime time.Time `json:"scheduled_datetime"`
	ImpactLevel       string    `json:"impact_level"`
	PreviousValue     *float64  `json:"previous_value"`
	ForecastValue     *float64  `json:"forecast_value"`
	ActualValue       *float64  `json:"actual_value"`
}

// PendingEvent is a stored event whose latest indicator still lacks an actual
// value, paired with the indicator row to back-fill.
type PendingEvent struct {
	EventID            uint      `json:"event_id"`
	IndicatorID        uint      `json:"indicator_id"`
	Currency           string    `json:"currency"`
	EventName          string    `json:"event_name"`
	ScheduledDatetime  time.Time `json:"scheduled_datetime"`
	ImpactLevel        string    `json:"impact_level"`
	PreviousValue      *float64  `json:"previous_value"`
	ForecastValue      *float64  `json:"forecast_value"`
	IsActualAvailable  bool      `json:"is_actual_available"`
	TimestampCollected time.Time `json:"timestamp_collected"`
}
