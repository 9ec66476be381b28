package repository

import (
	"context"
	"time"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/entity"
	"forex-sentiment-analyzer/pkg/common"

	"gorm.io/gorm"
)

// EventRepository defines the interface for interacting with calendar events.
type EventRepository interface {
	GetOrCreate(ctx context.Context, event *entity.Event) (*entity.Event, error)
	FindEventsMissingActual(ctx context.Context, lookbackDays int, now time.Time) ([]dto.PendingEvent, error)
	FindWeekEventsWithIndicators(ctx context.Context, weekStart, weekEnd, now time.Time, actualOnly bool) ([]dto.EventIndicator, error)
}

// NewEventRepository creates a new GORM-based event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

type eventRepository struct {
	db *gorm.DB
}

// GetOrCreate returns the event identified by (currency, event_name,
// scheduled_datetime), creating it when first observed.
func (r *eventRepository) GetOrCreate(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	var existing entity.Event
	err := r.db.WithContext(ctx).
		Where("currency = ? AND event_name = ? AND scheduled_datetime = ?",
			event.Currency, event.EventName, event.ScheduledDatetime).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// FindEventsMissingActual returns one row per high-impact event whose most
// recent indicator still lacks an actual value, scheduled within the lookback
// window in the past.
func (r *eventRepository) FindEventsMissingActual(ctx context.Context, lookbackDays int, now time.Time) ([]dto.PendingEvent, error) {
	cutoff := now.AddDate(0, 0, -lookbackDays)

	query := `
		SELECT
			e.id AS event_id,
			i.id AS indicator_id,
			e.currency,
			e.event_name,
			e.scheduled_datetime,
			e.impact_level,
			i.previous_value,
			i.forecast_value,
			COALESCE(i.is_actual_available, FALSE) AS is_actual_available,
			i.timestamp_collected
		FROM events e
		JOIN (
			SELECT DISTINCT ON (event_id) *
			FROM indicators
			WHERE timestamp_collected <= ?
			ORDER BY event_id, timestamp_collected DESC
		) i ON i.event_id = e.id
		WHERE e.scheduled_datetime >= ?
		  AND e.scheduled_datetime <= ?
		  AND e.impact_level = ?
		  AND (i.is_actual_available IS NULL OR i.is_actual_available = FALSE)
		ORDER BY e.scheduled_datetime DESC`

	var pending []dto.PendingEvent
	err := r.db.WithContext(ctx).
		Raw(query, now, cutoff, now, common.ImpactHigh).
		Scan(&pending).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// FindWeekEventsWithIndicators returns high-impact events in the window joined
// with their single most recent indicator, optionally restricted to rows with
// an actual value available.
func (r *eventRepository) FindWeekEventsWithIndicators(ctx context.Context, weekStart, weekEnd, now time.Time, actualOnly bool) ([]dto.EventIndicator, error) {
	query := `
		SELECT
			e.id AS event_id,
			e.currency,
			e.event_name,
			e.scheduled_datetime,
			e.impact_level,
			i.previous_value,
			i.forecast_value,
			i.actual_value,
			i.actual_collected_at,
			i.is_actual_available,
			i.timestamp_collected
		FROM events e
		JOIN (
			SELECT DISTINCT ON (event_id) *
			FROM indicators
			WHERE timestamp_collected <= ?
			ORDER BY event_id, timestamp_collected DESC
		) i ON i.event_id = e.id
		WHERE e.scheduled_datetime BETWEEN ? AND ?
		  AND e.impact_level = ?`
	if actualOnly {
		query += `
		  AND i.is_actual_available = TRUE`
	}
	query += `
		ORDER BY e.currency, e.scheduled_datetime`

	var events []dto.EventIndicator
	err := r.db.WithContext(ctx).
		Raw(query, now, weekStart, weekEnd, common.ImpactHigh).
		Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
