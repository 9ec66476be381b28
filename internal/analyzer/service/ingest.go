package service

import (
	"context"
	"fmt"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/analyzer/metrics"
	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/internal/entity"
	"forex-sentiment-analyzer/pkg/logger"
	"forex-sentiment-analyzer/pkg/utils"

	"github.com/jonboulle/clockwork"
)

// IngestService pulls the calendar feed and stores it as events plus
// append-only indicator observations.
type IngestService interface {
	IngestCalendar(ctx context.Context) (stored int, err error)
}

// NewIngestService creates a calendar ingest service.
func NewIngestService(
	source CalendarSource,
	eventRepo repository.EventRepository,
	indicatorRepo repository.IndicatorRepository,
	log *logger.Logger,
	clock clockwork.Clock,
) IngestService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ingestService{
		source:        source,
		eventRepo:     eventRepo,
		indicatorRepo: indicatorRepo,
		logger:        log,
		clock:         clock,
	}
}

type ingestService struct {
	source        CalendarSource
	eventRepo     repository.EventRepository
	indicatorRepo repository.IndicatorRepository
	logger        *logger.Logger
	clock         clockwork.Clock
}

// IngestCalendar fetches the current snapshot and stores each row. A new
// indicator observation is appended only when the row's values differ from
// the latest stored observation, so re-running ingestion is idempotent.
func (s *ingestService) IngestCalendar(ctx context.Context) (int, error) {
	snapshot, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch calendar: %w", err)
	}

	s.logger.Info("Ingesting calendar snapshot", logger.IntField("rows", len(snapshot)))

	stored := 0
	for _, row := range snapshot {
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		created, err := s.storeRow(ctx, row)
		if err != nil {
			s.logger.Error("Failed to store calendar row",
				logger.StringField("event_name", row.EventName),
				logger.StringField("currency", row.Currency),
				logger.ErrorField(err))
			continue
		}
		if created {
			stored++
			metrics.EventsIngested.Inc()
		}
	}

	s.logger.Info("Calendar ingest complete",
		logger.IntField("rows", len(snapshot)),
		logger.IntField("new_observations", stored))
	return stored, nil
}

func (s *ingestService) storeRow(ctx context.Context, row dto.CalendarEvent) (bool, error) {
	event, err := s.eventRepo.GetOrCreate(ctx, &entity.Event{
		Currency:          row.Currency,
		EventName:         row.EventName,
		ScheduledDatetime: row.ScheduledDatetime,
		ImpactLevel:       row.ImpactLevel,
	})
	if err != nil {
		return false, err
	}

	latest, err := s.indicatorRepo.FindLatestByEventID(ctx, event.ID)
	if err == nil && latest != nil && !observationChanged(latest, row) {
		return false, nil
	}

	indicator := &entity.Indicator{
		EventID:       event.ID,
		PreviousValue: row.PreviousValue,
		ForecastValue: row.ForecastValue,
	}
	if row.ActualValue != nil {
		now := s.clock.Now().UTC()
		indicator.ActualValue = row.ActualValue
		indicator.ActualCollectedAt = &now
		indicator.IsActualAvailable = true
	}
	if err := s.indicatorRepo.Create(ctx, indicator); err != nil {
		return false, err
	}
	return true, nil
}

// observationChanged reports whether the feed row carries different values
// than the latest stored observation.
func observationChanged(latest *entity.Indicator, row dto.CalendarEvent) bool {
	return !floatPtrEqual(latest.PreviousValue, row.PreviousValue) ||
		!floatPtrEqual(latest.ForecastValue, row.ForecastValue) ||
		!floatPtrEqual(latest.ActualValue, row.ActualValue)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
