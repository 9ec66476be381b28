package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/entity"
	"forex-sentiment-analyzer/pkg/common"
	"forex-sentiment-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

// stubSentimentService returns canned verdicts.
type stubSentimentService struct {
	weekly    map[string]dto.CurrencySentiment
	actual    map[string]dto.ActualCurrencySentiment
	weeklyErr error
}

func (s *stubSentimentService) CalculateEventSentiment(dto.EventIndicator) dto.EventSentiment {
	return dto.EventSentiment{}
}

func (s *stubSentimentService) CalculateActualEventSentiment(dto.EventIndicator) dto.ActualEventSentiment {
	return dto.ActualEventSentiment{}
}

func (s *stubSentimentService) ResolveCurrencyConflicts([]dto.EventSentiment) dto.Resolution {
	return dto.Resolution{}
}

func (s *stubSentimentService) ResolveActualCurrencyConflicts([]dto.ActualEventSentiment) dto.ActualResolution {
	return dto.ActualResolution{}
}

func (s *stubSentimentService) CalculateWeeklySentiments(context.Context, time.Time, time.Time) (map[string]dto.CurrencySentiment, error) {
	return s.weekly, s.weeklyErr
}

func (s *stubSentimentService) CalculateActualSentiment(context.Context, time.Time, time.Time) (map[string]dto.ActualCurrencySentiment, error) {
	return s.actual, nil
}

// stubSentimentRepo serves stored verdict rows.
type stubSentimentRepo struct {
	rows   []entity.Sentiment
	latest *entity.Sentiment
}

func (s *stubSentimentRepo) Upsert(context.Context, *entity.Sentiment) error { return nil }

func (s *stubSentimentRepo) FindByWeek(context.Context, time.Time, time.Time) ([]entity.Sentiment, error) {
	return s.rows, nil
}

func (s *stubSentimentRepo) FindLatestByCurrency(context.Context, string) (*entity.Sentiment, error) {
	if s.latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.latest, nil
}

// stubEventRepo serves week events.
type stubEventRepo struct {
	events []dto.EventIndicator
}

func (s *stubEventRepo) GetOrCreate(_ context.Context, event *entity.Event) (*entity.Event, error) {
	return event, nil
}

func (s *stubEventRepo) FindEventsMissingActual(context.Context, int, time.Time) ([]dto.PendingEvent, error) {
	return nil, nil
}

func (s *stubEventRepo) FindWeekEventsWithIndicators(context.Context, time.Time, time.Time, time.Time, bool) ([]dto.EventIndicator, error) {
	return s.events, nil
}

type stubReconciler struct {
	processed, updated int
	err                error
}

func (s *stubReconciler) Run(context.Context) (int, int, error) {
	return s.processed, s.updated, s.err
}

type stubMonitor struct {
	report dto.HealthReport
}

func (s *stubMonitor) CheckHealth(context.Context) (dto.HealthReport, error) {
	return s.report, nil
}

func (s *stubMonitor) RunHealthCheck(context.Context) error { return nil }

func doRequest(t *testing.T, method, target string, handler echo.HandlerFunc, pathParams map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range pathParams {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, handler(c))
	return rec
}

func TestGetWeeklySentimentsFromStore(t *testing.T) {
	details, err := json.Marshal(dto.CurrencySentiment{
		Currency:   "USD",
		Resolution: dto.Resolution{FinalSentiment: common.SentimentBullish},
	})
	require.NoError(t, err)

	repo := &stubSentimentRepo{rows: []entity.Sentiment{{Currency: "USD", Details: details}}}
	h := NewSentimentHandler(&stubSentimentService{}, repo, nil, testLogger(t))

	rec := doRequest(t, http.MethodGet, "/api/v1/sentiments", h.GetWeeklySentiments, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]dto.CurrencySentiment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, common.SentimentBullish, payload["USD"].Resolution.FinalSentiment)
}

func TestGetCurrencySentiment(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		details, err := json.Marshal(dto.CurrencySentiment{Currency: "EUR"})
		require.NoError(t, err)

		repo := &stubSentimentRepo{latest: &entity.Sentiment{Currency: "EUR", Details: details}}
		h := NewSentimentHandler(&stubSentimentService{}, repo, nil, testLogger(t))

		rec := doRequest(t, http.MethodGet, "/api/v1/sentiments/EUR", h.GetCurrencySentiment, map[string]string{"currency": "EUR"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown currency is 404", func(t *testing.T) {
		h := NewSentimentHandler(&stubSentimentService{}, &stubSentimentRepo{}, nil, testLogger(t))

		rec := doRequest(t, http.MethodGet, "/api/v1/sentiments/XXX", h.GetCurrencySentiment, map[string]string{"currency": "XXX"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRunReconciliation(t *testing.T) {
	h := NewPipelineHandler(&stubEventRepo{}, &stubSentimentService{}, &stubReconciler{processed: 4, updated: 2}, &stubMonitor{}, testLogger(t))

	rec := doRequest(t, http.MethodPost, "/api/v1/reconciliation/run", h.RunReconciliation, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ReconciliationRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.EventsProcessed)
	assert.Equal(t, 2, resp.EventsUpdated)
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy returns 200", func(t *testing.T) {
		h := NewPipelineHandler(&stubEventRepo{}, &stubSentimentService{}, &stubReconciler{}, &stubMonitor{report: dto.HealthReport{Healthy: true}}, testLogger(t))

		rec := doRequest(t, http.MethodGet, "/health", h.Health, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("degraded returns 503", func(t *testing.T) {
		h := NewPipelineHandler(&stubEventRepo{}, &stubSentimentService{}, &stubReconciler{}, &stubMonitor{report: dto.HealthReport{Healthy: false}}, testLogger(t))

		rec := doRequest(t, http.MethodGet, "/health", h.Health, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetWeekEvents(t *testing.T) {
	repo := &stubEventRepo{events: []dto.EventIndicator{{EventID: 1, Currency: "USD", EventName: "CPI y/y"}}}
	h := NewPipelineHandler(repo, &stubSentimentService{}, &stubReconciler{}, &stubMonitor{}, testLogger(t))

	rec := doRequest(t, http.MethodGet, "/api/v1/events", h.GetWeekEvents, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var events []dto.EventIndicator
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "CPI y/y", events[0].EventName)
}
