package dto

import "time"

// EventIndicator is a stored event joined with its single most recent
// indicator row, as returned by the event store for an analysis window.
type EventIndicator struct {
	EventID            uint       `json:"event_id"`
	Currency           string     `json:"currency"`
	EventName          string     `json:"event_name"`
	ScheduledDatetime  time.Time  `json:"scheduled_datetime"`
	ImpactLevel        string     `json:"impact_level"`
	PreviousValue      *float64   `json:"previous_value"`
	ForecastValue      *float64   `json:"forecast_value"`
	ActualValue        *float64   `json:"actual_value"`
	ActualCollectedAt  *time.Time `json:"actual_collected_at,omitempty"`
	IsActualAvailable  bool       `json:"is_actual_available"`
	TimestampCollected time.Time  `json:"timestamp_collected"`
}

// EventSentiment is the forecast-based directional signal for one event.
type EventSentiment struct {
	EventID           uint     `json:"event_id"`
	EventName         string   `json:"event_name"`
	PreviousValue     *float64 `json:"previous_value"`
	ForecastValue     *float64 `json:"forecast_value"`
	ScheduledDatetime string   `json:"scheduled_datetime"`
	Sentiment         int      `json:"sentiment"`
	SentimentLabel    string   `json:"sentiment_label"`
	DataAvailable     bool     `json:"data_available"`
	Reason            string   `json:"reason,omitempty"`
	IsInverse         bool     `json:"is_inverse"`
}

// ActualEventSentiment is the actual-based directional signal for one event.
type ActualEventSentiment struct {
	EventID                  uint     `json:"event_id"`
	EventName                string   `json:"event_name"`
	PreviousValue            *float64 `json:"previous_value"`
	ForecastValue            *float64 `json:"forecast_value"`
	ActualValue              *float64 `json:"actual_value"`
	ScheduledDatetime        string   `json:"scheduled_datetime"`
	ActualSentiment          int      `json:"actual_sentiment"`
	ActualSentimentLabel     string   `json:"actual_sentiment_label"`
	ActualDataAvailable      bool     `json:"actual_data_available"`
	ActualReason             string   `json:"actual_reason,omitempty"`
	IsInverse                bool     `json:"is_inverse"`
	ForecastVsActualVariance *float64 `json:"forecast_vs_actual_variance"`
}

// SentimentBreakdown counts per-event signals by direction.
type SentimentBreakdown struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
	Neutral int `json:"neutral"`
}

// DataAvailability counts events with and without usable actual data.
type DataAvailability struct {
	Available int `json:"available"`
	Missing   int `json:"missing"`
}

// Resolution is the per-currency verdict after conflict resolution.
type Resolution struct {
	FinalSentiment      string             `json:"final_sentiment"`
	FinalSentimentValue int                `json:"final_sentiment_value"`
	Reason              string             `json:"reason"`
	EventCount          int                `json:"event_count"`
	SentimentBreakdown  SentimentBreakdown `json:"sentiment_breakdown"`
}

// ActualResolution is the per-currency verdict for the actual-based variant,
// which additionally reports data availability.
type ActualResolution struct {
	FinalActualSentiment      string             `json:"final_actual_sentiment"`
	FinalActualSentimentValue int                `json:"final_actual_sentiment_value"`
	ActualReason              string             `json:"actual_reason"`
	EventCount                int                `json:"event_count"`
	ActualSentimentBreakdown  SentimentBreakdown `json:"actual_sentiment_breakdown"`
	DataAvailability          DataAvailability   `json:"data_availability"`
}

// AnalysisPeriod carries the week bounds of a verdict.
type AnalysisPeriod struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
}

// CurrencySentiment is the reporting-layer contract for one currency.
type CurrencySentiment struct {
	Currency       string           `json:"currency"`
	Events         []EventSentiment `json:"events"`
	Resolution     Resolution       `json:"resolution"`
	AnalysisPeriod AnalysisPeriod   `json:"analysis_period"`
}

// ActualCurrencySentiment is the actual-based reporting shape for one currency.
type ActualCurrencySentiment struct {
	Currency         string                 `json:"currency"`
	Events           []ActualEventSentiment `json:"events"`
	ActualResolution ActualResolution       `json:"actual_resolution"`
	WeekStart        string                 `json:"week_start"`
	WeekEnd          string                 `json:"week_end"`
}
