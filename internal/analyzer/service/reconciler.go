package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/analyzer/metrics"
	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/internal/analyzer/scraper"
	"forex-sentiment-analyzer/internal/entity"
	"forex-sentiment-analyzer/pkg/breaker"
	"forex-sentiment-analyzer/pkg/common"
	"forex-sentiment-analyzer/pkg/logger"
	"forex-sentiment-analyzer/pkg/utils"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// maxFetchBackoff caps the exponential retry delay between snapshot fetches.
	maxFetchBackoff = 60 * time.Second

	// persistAttempts bounds the linear-backoff write retries per matched value.
	persistAttempts = 3

	// eventTimeTolerance is how far a feed row's timestamp may drift from the
	// stored schedule and still be considered the same release.
	eventTimeTolerance = 24 * time.Hour
)

// CalendarSource provides a current snapshot of the public economic calendar.
type CalendarSource interface {
	FetchSnapshot(ctx context.Context) ([]dto.CalendarEvent, error)
}

// ReconcilerService back-fills actual values onto stored indicators from the
// live calendar feed.
type ReconcilerService interface {
	Run(ctx context.Context) (processed int, updated int, err error)
}

// NewReconcilerService creates a reconciliation engine. redisClient may be
// nil, in which case no cross-process run lock is taken.
func NewReconcilerService(
	source CalendarSource,
	eventRepo repository.EventRepository,
	indicatorRepo repository.IndicatorRepository,
	runRepo repository.CollectionRunRepository,
	redisClient *goredis.Client,
	log *logger.Logger,
	clock clockwork.Clock,
	lookbackDays int,
	retryLimit int,
) ReconcilerService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	if retryLimit <= 0 {
		retryLimit = 3
	}

	return &reconcilerService{
		source:        source,
		eventRepo:     eventRepo,
		indicatorRepo: indicatorRepo,
		runRepo:       runRepo,
		redisClient:   redisClient,
		logger:        log,
		clock:         clock,
		breaker:       breaker.New(breaker.DefaultThreshold, breaker.DefaultCooldown, clock),
		lookbackDays:  lookbackDays,
		retryLimit:    retryLimit,
	}
}

type reconcilerService struct {
	source        CalendarSource
	eventRepo     repository.EventRepository
	indicatorRepo repository.IndicatorRepository
	runRepo       repository.CollectionRunRepository
	redisClient   *goredis.Client
	logger        *logger.Logger
	clock         clockwork.Clock
	breaker       *breaker.Breaker
	lookbackDays  int
	retryLimit    int
}

// Run scans recent high-impact events whose latest indicator lacks an actual
// value and attempts to resolve each one from the calendar feed. Per-event
// failures are absorbed; only a failure to enumerate pending events aborts
// the run.
func (s *reconcilerService) Run(ctx context.Context) (int, int, error) {
	if !s.acquireLock(ctx) {
		s.logger.Info("Reconciliation already running elsewhere, skipping")
		return 0, 0, nil
	}
	defer s.releaseLock(ctx)

	started := s.clock.Now()
	now := started.UTC()

	pending, err := s.eventRepo.FindEventsMissingActual(ctx, s.lookbackDays, now)
	if err != nil {
		s.categorizeFailure(fmt.Errorf("%w: %v", errStorage, err))
		s.recordRun(ctx, 0, 0, false, err.Error(), started)
		return 0, 0, fmt.Errorf("failed to query pending events: %w", err)
	}

	s.logger.Info("Starting actual-value reconciliation",
		logger.IntField("pending_events", len(pending)),
		logger.IntField("lookback_days", s.lookbackDays))

	processed, updated := 0, 0
	for _, event := range pending {
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		processed++
		metrics.ReconcilerEventsProcessed.Inc()

		value := s.resolveActualForEvent(ctx, event)
		if value == nil {
			continue
		}

		if s.persistActual(ctx, event, *value, now) {
			updated++
			metrics.ReconcilerEventsUpdated.Inc()
		}
	}

	s.recordRun(ctx, processed, updated, true, "", started)
	s.logger.Info("Reconciliation complete",
		logger.IntField("processed", processed),
		logger.IntField("updated", updated))
	return processed, updated, nil
}

// resolveActualForEvent fetches the calendar snapshot (with retry and
// circuit-breaker gating) and looks for a row matching the stored event. It
// returns nil whenever no published actual could be resolved; it never
// returns an error, since one stubborn event must not stall the sweep.
func (s *reconcilerService) resolveActualForEvent(ctx context.Context, event dto.PendingEvent) *float64 {
	if !s.breaker.Allow() {
		metrics.ReconcilerBreakerOpens.Inc()
		s.logger.Warn("Circuit breaker open, skipping event",
			logger.StringField("event_name", event.EventName),
			logger.IntField("consecutive_failures", s.breaker.ConsecutiveFailures()))
		return nil
	}

	var snapshot []dto.CalendarEvent
	var err error
	for attempt := 1; attempt <= s.retryLimit; attempt++ {
		snapshot, err = s.source.FetchSnapshot(ctx)
		if err == nil {
			s.breaker.RecordSuccess()
			break
		}

		s.breaker.RecordFailure()
		s.categorizeFailure(err)
		s.logger.Warn("Calendar fetch failed",
			logger.StringField("event_name", event.EventName),
			logger.IntField("attempt", attempt),
			logger.ErrorField(err))

		if attempt < s.retryLimit && s.breaker.Allow() {
			s.sleep(ctx, s.fetchBackoff(attempt))
			continue
		}
		return nil
	}
	if err != nil {
		return nil
	}

	for _, row := range snapshot {
		if row.Currency != event.Currency {
			continue
		}
		if !eventsMatch(row.EventName, event.EventName) {
			continue
		}
		if !datetimesMatch(row.ScheduledDatetime, event.ScheduledDatetime) {
			continue
		}
		if row.ActualValue == nil {
			// Matched but not yet published; the next sweep will retry.
			return nil
		}
		return row.ActualValue
	}

	return nil
}

// fetchBackoff computes the delay before retry `attempt`: exponential in the
// attempt number, scaled by uniform jitter in [0.5, 1.5) and the breaker's
// adaptive multiplier, capped at maxFetchBackoff.
func (s *reconcilerService) fetchBackoff(attempt int) time.Duration {
	jitter := 0.5 + rand.Float64()
	seconds := math.Pow(2, float64(attempt)) * jitter * s.breaker.Multiplier()
	delay := time.Duration(seconds * float64(time.Second))
	if delay > maxFetchBackoff {
		delay = maxFetchBackoff
	}
	return delay
}

// persistActual writes the resolved value with bounded linear-backoff
// retries. The update itself is transactional, so a failed attempt leaves
// the row untouched.
func (s *reconcilerService) persistActual(ctx context.Context, event dto.PendingEvent, value float64, collectedAt time.Time) bool {
	var lastErr error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		lastErr = s.indicatorRepo.UpdateActual(ctx, event.IndicatorID, value, collectedAt)
		if lastErr == nil {
			s.logger.Info("Back-filled actual value",
				logger.StringField("event_name", event.EventName),
				logger.StringField("currency", event.Currency),
				logger.Field("actual_value", value))
			return true
		}
		if attempt < persistAttempts {
			s.sleep(ctx, time.Duration(attempt)*2*time.Second)
		}
	}

	s.categorizeFailure(fmt.Errorf("%w: %v", errStorage, lastErr))
	s.logger.Error("Failed to persist actual value",
		logger.StringField("event_name", event.EventName),
		logger.ErrorField(lastErr))
	return false
}

func (s *reconcilerService) recordRun(ctx context.Context, processed, updated int, success bool, errMsg string, started time.Time) {
	run := &entity.CollectionRun{
		EventsProcessed:      processed,
		EventsUpdated:        updated,
		Success:              success,
		ExecutionTimeSeconds: s.clock.Since(started).Seconds(),
	}
	if errMsg != "" {
		run.ErrorMessage = sql.NullString{String: errMsg, Valid: true}
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.logger.Error("Failed to record collection run", logger.ErrorField(err))
	}
}

func (s *reconcilerService) acquireLock(ctx context.Context) bool {
	if s.redisClient == nil {
		return true
	}
	ok, err := s.redisClient.SetNX(ctx, common.RedisKeyReconcilerLock, s.clock.Now().Unix(), common.ReconcilerLockTTL).Result()
	if err != nil {
		s.logger.Warn("Failed to acquire reconciliation lock, proceeding without it", logger.ErrorField(err))
		return true
	}
	return ok
}

func (s *reconcilerService) releaseLock(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, common.RedisKeyReconcilerLock).Err(); err != nil {
		s.logger.Warn("Failed to release reconciliation lock", logger.ErrorField(err))
	}
}

func (s *reconcilerService) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-s.clock.After(d):
	}
}

var errStorage = errors.New("storage error")

// categorizeFailure counts a failure under its error category. Categories
// feed dashboards only; they never change control flow.
func (s *reconcilerService) categorizeFailure(err error) {
	switch {
	case errors.Is(err, scraper.ErrParse):
		metrics.ReconcilerFailures.WithLabelValues("parsing").Inc()
	case errors.Is(err, errStorage):
		metrics.ReconcilerFailures.WithLabelValues("storage").Inc()
	default:
		metrics.ReconcilerFailures.WithLabelValues("network").Inc()
	}
}

// normalizeEventTitle lowercases a feed title and canonicalizes the period
// suffixes the feed abbreviates inconsistently.
func normalizeEventTitle(title string) string {
	normalized := strings.ToLower(strings.TrimSpace(title))
	normalized = strings.ReplaceAll(normalized, "m/m", "mom")
	normalized = strings.ReplaceAll(normalized, "y/y", "yoy")
	normalized = strings.ReplaceAll(normalized, "q/q", "qoq")
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", "")
	for strings.Contains(normalized, "  ") {
		normalized = strings.ReplaceAll(normalized, "  ", " ")
	}
	return normalized
}

// eventsMatch reports whether two titles identify the same release after
// normalization: equal, or one contained in the other.
func eventsMatch(a, b string) bool {
	na, nb := normalizeEventTitle(a), normalizeEventTitle(b)
	if na == nb {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func datetimesMatch(a, b time.Time) bool {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	return delta <= eventTimeTolerance
}
