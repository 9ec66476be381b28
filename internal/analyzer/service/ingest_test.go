package service

import (
	"context"
	"testing"
	"time"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/entity"
	"forex-sentiment-analyzer/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// storingIndicatorRepo keeps created indicators in memory keyed by event.
type storingIndicatorRepo struct {
	byEvent map[uint]*entity.Indicator
	created int
}

func newStoringIndicatorRepo() *storingIndicatorRepo {
	return &storingIndicatorRepo{byEvent: make(map[uint]*entity.Indicator)}
}

func (r *storingIndicatorRepo) Create(_ context.Context, indicator *entity.Indicator) error {
	r.created++
	r.byEvent[indicator.EventID] = indicator
	return nil
}

func (r *storingIndicatorRepo) FindByID(context.Context, uint) (*entity.Indicator, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *storingIndicatorRepo) FindLatestByEventID(_ context.Context, eventID uint) (*entity.Indicator, error) {
	indicator, ok := r.byEvent[eventID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return indicator, nil
}

func (r *storingIndicatorRepo) UpdateActual(context.Context, uint, float64, time.Time) error {
	return nil
}

// countingEventRepo assigns IDs on first sight of an event key.
type countingEventRepo struct {
	fakeEventRepo
	byKey  map[string]*entity.Event
	nextID uint
}

func newCountingEventRepo() *countingEventRepo {
	return &countingEventRepo{byKey: make(map[string]*entity.Event), nextID: 1}
}

func (r *countingEventRepo) GetOrCreate(_ context.Context, event *entity.Event) (*entity.Event, error) {
	key := event.Currency + "|" + event.EventName + "|" + event.ScheduledDatetime.String()
	if existing, ok := r.byKey[key]; ok {
		return existing, nil
	}
	event.ID = r.nextID
	r.nextID++
	r.byKey[key] = event
	return event, nil
}

func TestIngestCalendar(t *testing.T) {
	scheduled := time.Date(2025, 3, 4, 13, 30, 0, 0, time.UTC)
	row := dto.CalendarEvent{
		Currency:          "USD",
		EventName:         "CPI y/y",
		ScheduledDatetime: scheduled,
		ImpactLevel:       "High",
		PreviousValue:     utils.ToPointer(2.0),
		ForecastValue:     utils.ToPointer(2.1),
	}

	t.Run("stores new events and is idempotent", func(t *testing.T) {
		source := &fakeCalendarSource{snapshot: []dto.CalendarEvent{row}}
		eventRepo := newCountingEventRepo()
		indicatorRepo := newStoringIndicatorRepo()
		svc := NewIngestService(source, eventRepo, indicatorRepo, testLogger(t), clockwork.NewFakeClock())

		stored, err := svc.IngestCalendar(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stored)

		// Re-ingesting the same snapshot appends nothing.
		stored, err = svc.IngestCalendar(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, stored)
		assert.Equal(t, 1, indicatorRepo.created)
	})

	t.Run("appends a new observation when values change", func(t *testing.T) {
		source := &fakeCalendarSource{snapshot: []dto.CalendarEvent{row}}
		eventRepo := newCountingEventRepo()
		indicatorRepo := newStoringIndicatorRepo()
		svc := NewIngestService(source, eventRepo, indicatorRepo, testLogger(t), clockwork.NewFakeClock())

		_, err := svc.IngestCalendar(context.Background())
		require.NoError(t, err)

		revised := row
		revised.ForecastValue = utils.ToPointer(2.3)
		source.snapshot = []dto.CalendarEvent{revised}

		stored, err := svc.IngestCalendar(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stored)
		assert.Equal(t, 2, indicatorRepo.created)
	})

	t.Run("marks actual availability when the feed already has one", func(t *testing.T) {
		published := row
		published.ActualValue = utils.ToPointer(2.2)
		source := &fakeCalendarSource{snapshot: []dto.CalendarEvent{published}}
		eventRepo := newCountingEventRepo()
		indicatorRepo := newStoringIndicatorRepo()
		svc := NewIngestService(source, eventRepo, indicatorRepo, testLogger(t), clockwork.NewFakeClock())

		_, err := svc.IngestCalendar(context.Background())
		require.NoError(t, err)

		stored := indicatorRepo.byEvent[1]
		require.NotNil(t, stored)
		assert.True(t, stored.IsActualAvailable)
		require.NotNil(t, stored.ActualValue)
		assert.InDelta(t, 2.2, *stored.ActualValue, 1e-9)
		assert.NotNil(t, stored.ActualCollectedAt)
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		source := &fakeCalendarSource{err: assert.AnError}
		svc := NewIngestService(source, newCountingEventRepo(), newStoringIndicatorRepo(), testLogger(t), clockwork.NewFakeClock())

		_, err := svc.IngestCalendar(context.Background())
		assert.Error(t, err)
	})
}
