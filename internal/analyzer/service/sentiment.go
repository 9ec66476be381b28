package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/analyzer/metrics"
	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/internal/entity"
	"forex-sentiment-analyzer/pkg/common"
	"forex-sentiment-analyzer/pkg/logger"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// equalityEpsilon treats two observations as equal when their difference is
// within floating-point noise.
const equalityEpsilon = 1e-10

// speakingKeywords mark events that carry no directional numeric signal.
var speakingKeywords = []string{"speaks", "speech", "meeting", "conference", "statement", "press"}

// defaultInverseIndicators are series where a numeric increase is
// conventionally bearish for the currency.
var defaultInverseIndicators = []string{
	"unemployment claims",
	"initial jobless claims",
	"continuing jobless claims",
	"unemployment rate",
	"jobless claims",
	"weekly unemployment claims",
	"business inventories",
	"crude oil inventories",
}

// SentimentOptions is the explicit configuration for the sentiment engine.
type SentimentOptions struct {
	Threshold         float64
	InverseIndicators []string
}

// SentimentService computes directional signals per event and resolves them
// into one verdict per currency per analysis window.
type SentimentService interface {
	CalculateEventSentiment(event dto.EventIndicator) dto.EventSentiment
	CalculateActualEventSentiment(event dto.EventIndicator) dto.ActualEventSentiment
	ResolveCurrencyConflicts(events []dto.EventSentiment) dto.Resolution
	ResolveActualCurrencyConflicts(events []dto.ActualEventSentiment) dto.ActualResolution
	CalculateWeeklySentiments(ctx context.Context, weekStart, weekEnd time.Time) (map[string]dto.CurrencySentiment, error)
	CalculateActualSentiment(ctx context.Context, weekStart, weekEnd time.Time) (map[string]dto.ActualCurrencySentiment, error)
}

// NewSentimentService creates a sentiment engine. redisClient may be nil, in
// which case verdicts are not cached for the API.
func NewSentimentService(
	eventRepo repository.EventRepository,
	sentimentRepo repository.SentimentRepository,
	redisClient *goredis.Client,
	log *logger.Logger,
	clock clockwork.Clock,
	opts SentimentOptions,
) SentimentService {
	inverse := opts.InverseIndicators
	if len(inverse) == 0 {
		inverse = defaultInverseIndicators
	}
	lowered := make([]string, len(inverse))
	for i, name := range inverse {
		lowered[i] = strings.ToLower(name)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &sentimentService{
		eventRepo:         eventRepo,
		sentimentRepo:     sentimentRepo,
		redisClient:       redisClient,
		logger:            log,
		clock:             clock,
		threshold:         opts.Threshold,
		inverseIndicators: lowered,
	}
}

type sentimentService struct {
	eventRepo         repository.EventRepository
	sentimentRepo     repository.SentimentRepository
	redisClient       *goredis.Client
	logger            *logger.Logger
	clock             clockwork.Clock
	threshold         float64
	inverseIndicators []string
}

// isInverseIndicator reports whether the event name matches an inverse series
// by case-insensitive substring.
func (s *sentimentService) isInverseIndicator(eventName string) bool {
	name := strings.ToLower(eventName)
	for _, inverse := range s.inverseIndicators {
		if strings.Contains(name, inverse) {
			return true
		}
	}
	return false
}

func isSpeakingEvent(eventName string) bool {
	name := strings.ToLower(eventName)
	for _, keyword := range speakingKeywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// CalculateEventSentiment derives the forecast-based signal for one event.
// A forecast that exactly meets the previous value is treated as bullish:
// meeting expectations is a positive signal.
func (s *sentimentService) CalculateEventSentiment(event dto.EventIndicator) dto.EventSentiment {
	result := dto.EventSentiment{
		EventID:           event.EventID,
		EventName:         event.EventName,
		PreviousValue:     event.PreviousValue,
		ForecastValue:     event.ForecastValue,
		ScheduledDatetime: event.ScheduledDatetime.Format(time.RFC3339),
		Sentiment:         0,
		SentimentLabel:    common.SentimentNeutral,
		DataAvailable:     true,
		IsInverse:         s.isInverseIndicator(event.EventName),
	}

	if event.PreviousValue == nil || event.ForecastValue == nil {
		result.DataAvailable = false
		result.Reason = "Missing forecast or previous value"
		return result
	}

	if isSpeakingEvent(event.EventName) {
		result.Reason = "Speaking event - no directional sentiment"
		return result
	}

	diff := *event.ForecastValue - *event.PreviousValue

	if math.Abs(diff) <= equalityEpsilon {
		result.Sentiment = 1
		result.SentimentLabel = common.SentimentBullish
		result.Reason = "Forecast meets previous value (stability/meeting expectations)"
		return result
	}

	if result.IsInverse {
		switch {
		case diff > s.threshold:
			result.Sentiment = -1
			result.SentimentLabel = common.SentimentBearish
			result.Reason = fmt.Sprintf("Higher forecast for inverse indicator (%s)", event.EventName)
		case diff < -s.threshold:
			result.Sentiment = 1
			result.SentimentLabel = common.SentimentBullish
			result.Reason = fmt.Sprintf("Lower forecast for inverse indicator (%s)", event.EventName)
		default:
			result.Reason = "Within threshold for inverse indicator"
		}
		return result
	}

	switch {
	case diff > s.threshold:
		result.Sentiment = 1
		result.SentimentLabel = common.SentimentBullish
		result.Reason = fmt.Sprintf("Higher forecast for normal indicator (%s)", event.EventName)
	case diff < -s.threshold:
		result.Sentiment = -1
		result.SentimentLabel = common.SentimentBearish
		result.Reason = fmt.Sprintf("Lower forecast for normal indicator (%s)", event.EventName)
	default:
		result.Reason = "Within threshold for normal indicator"
	}
	return result
}

// CalculateActualEventSentiment derives the actual-based signal for one
// event. Unlike the forecast variant, an actual that equals the previous
// value is neutral: no change is no signal.
func (s *sentimentService) CalculateActualEventSentiment(event dto.EventIndicator) dto.ActualEventSentiment {
	result := dto.ActualEventSentiment{
		EventID:              event.EventID,
		EventName:            event.EventName,
		PreviousValue:        event.PreviousValue,
		ForecastValue:        event.ForecastValue,
		ActualValue:          event.ActualValue,
		ScheduledDatetime:    event.ScheduledDatetime.Format(time.RFC3339),
		ActualSentiment:      0,
		ActualSentimentLabel: common.SentimentNeutral,
		ActualDataAvailable:  true,
		IsInverse:            s.isInverseIndicator(event.EventName),
	}

	if event.PreviousValue == nil || event.ActualValue == nil {
		result.ActualDataAvailable = false
		result.ActualReason = "Missing actual or previous value"
		return result
	}

	if event.ForecastValue != nil {
		variance := *event.ActualValue - *event.ForecastValue
		result.ForecastVsActualVariance = &variance
	}

	diff := *event.ActualValue - *event.PreviousValue

	if math.Abs(diff) <= equalityEpsilon {
		result.ActualReason = "Actual equals previous value (no change)"
		return result
	}

	if result.IsInverse {
		switch {
		case diff > s.threshold:
			result.ActualSentiment = -1
			result.ActualSentimentLabel = common.SentimentBearish
			result.ActualReason = fmt.Sprintf("Higher actual for inverse indicator (%s)", event.EventName)
		case diff < -s.threshold:
			result.ActualSentiment = 1
			result.ActualSentimentLabel = common.SentimentBullish
			result.ActualReason = fmt.Sprintf("Lower actual for inverse indicator (%s)", event.EventName)
		default:
			result.ActualReason = "Within threshold for inverse indicator"
		}
		return result
	}

	switch {
	case diff > s.threshold:
		result.ActualSentiment = 1
		result.ActualSentimentLabel = common.SentimentBullish
		result.ActualReason = fmt.Sprintf("Higher actual for normal indicator (%s)", event.EventName)
	case diff < -s.threshold:
		result.ActualSentiment = -1
		result.ActualSentimentLabel = common.SentimentBearish
		result.ActualReason = fmt.Sprintf("Lower actual for normal indicator (%s)", event.EventName)
	default:
		result.ActualReason = "Within threshold for normal indicator"
	}
	return result
}

// countSentiments buckets signed signals into bullish/bearish/neutral counts.
func countSentiments(values []int) dto.SentimentBreakdown {
	var counts dto.SentimentBreakdown
	for _, v := range values {
		switch {
		case v > 0:
			counts.Bullish++
		case v < 0:
			counts.Bearish++
		default:
			counts.Neutral++
		}
	}
	return counts
}

// resolve applies the plurality rule: whichever bucket strictly exceeds both
// others wins outright; any tie among the top buckets resolves bearish when
// bearish >= bullish, otherwise bullish, both flagged as consolidation.
func resolve(counts dto.SentimentBreakdown, total int, actual bool) (string, int, string) {
	variant := ""
	if actual {
		variant = " actual sentiment"
	}

	switch {
	case counts.Bullish > counts.Bearish && counts.Bullish > counts.Neutral:
		return common.SentimentBullish, 1,
			fmt.Sprintf("Majority bullish%s (%d/%d events)", variant, counts.Bullish, total)
	case counts.Bearish > counts.Bullish && counts.Bearish > counts.Neutral:
		return common.SentimentBearish, -1,
			fmt.Sprintf("Majority bearish%s (%d/%d events)", variant, counts.Bearish, total)
	case counts.Neutral > counts.Bullish && counts.Neutral > counts.Bearish:
		return common.SentimentNeutral, 0,
			fmt.Sprintf("Majority neutral%s (%d/%d events)", variant, counts.Neutral, total)
	case counts.Bearish >= counts.Bullish:
		return common.SentimentBearishConsolidation, -1,
			fmt.Sprintf("Tie resolved bearish (%d bearish, %d bullish, %d neutral)",
				counts.Bearish, counts.Bullish, counts.Neutral)
	default:
		return common.SentimentBullishConsolidation, 1,
			fmt.Sprintf("Tie resolved bullish (%d bullish, %d bearish, %d neutral)",
				counts.Bullish, counts.Bearish, counts.Neutral)
	}
}

// ResolveCurrencyConflicts aggregates per-event forecast signals for one
// currency into a final verdict.
func (s *sentimentService) ResolveCurrencyConflicts(events []dto.EventSentiment) dto.Resolution {
	if len(events) == 0 {
		return dto.Resolution{
			FinalSentiment: common.SentimentNeutral,
			Reason:         "No events found",
		}
	}

	values := make([]int, len(events))
	for i, ev := range events {
		values[i] = ev.Sentiment
	}
	counts := countSentiments(values)
	label, value, reason := resolve(counts, len(events), false)

	return dto.Resolution{
		FinalSentiment:      label,
		FinalSentimentValue: value,
		Reason:              reason,
		EventCount:          len(events),
		SentimentBreakdown:  counts,
	}
}

// ResolveActualCurrencyConflicts aggregates per-event actual signals for one
// currency, additionally reporting how many events had usable actual data.
func (s *sentimentService) ResolveActualCurrencyConflicts(events []dto.ActualEventSentiment) dto.ActualResolution {
	if len(events) == 0 {
		return dto.ActualResolution{
			FinalActualSentiment: common.SentimentNeutral,
			ActualReason:         "No events with actual data found",
		}
	}

	values := make([]int, len(events))
	var availability dto.DataAvailability
	for i, ev := range events {
		values[i] = ev.ActualSentiment
		if ev.ActualDataAvailable {
			availability.Available++
		} else {
			availability.Missing++
		}
	}
	counts := countSentiments(values)
	label, value, reason := resolve(counts, len(events), true)

	return dto.ActualResolution{
		FinalActualSentiment:      label,
		FinalActualSentimentValue: value,
		ActualReason:              reason,
		EventCount:                len(events),
		ActualSentimentBreakdown:  counts,
		DataAvailability:          availability,
	}
}

// CalculateWeeklySentiments computes forecast-based verdicts for every
// currency with high-impact events in the window, persists one verdict row
// per currency, and caches the full result for the API.
func (s *sentimentService) CalculateWeeklySentiments(ctx context.Context, weekStart, weekEnd time.Time) (map[string]dto.CurrencySentiment, error) {
	now := s.clock.Now().UTC()
	events, err := s.eventRepo.FindWeekEventsWithIndicators(ctx, weekStart, weekEnd, now, false)
	if err != nil {
		return nil, fmt.Errorf("failed to query week events: %w", err)
	}

	s.logger.Info("Calculating weekly sentiments",
		logger.StringField("week_start", weekStart.Format("2006-01-02")),
		logger.StringField("week_end", weekEnd.Format("2006-01-02")),
		logger.IntField("events", len(events)))

	if len(events) == 0 {
		s.logger.Warn("No events found for the specified week")
		return map[string]dto.CurrencySentiment{}, nil
	}

	byCurrency := make(map[string][]dto.EventSentiment)
	for _, event := range events {
		byCurrency[event.Currency] = append(byCurrency[event.Currency], s.CalculateEventSentiment(event))
	}

	period := dto.AnalysisPeriod{
		WeekStart: weekStart.Format(time.RFC3339),
		WeekEnd:   weekEnd.Format(time.RFC3339),
	}

	verdicts := make(map[string]dto.CurrencySentiment, len(byCurrency))
	for currency, currencyEvents := range byCurrency {
		verdicts[currency] = dto.CurrencySentiment{
			Currency:       currency,
			Events:         currencyEvents,
			Resolution:     s.ResolveCurrencyConflicts(currencyEvents),
			AnalysisPeriod: period,
		}
		metrics.SentimentComputations.WithLabelValues("forecast").Inc()
	}

	if err := s.persistVerdicts(ctx, verdicts, weekStart, weekEnd, now); err != nil {
		return nil, err
	}
	s.cacheVerdicts(ctx, verdicts)

	s.logger.Info("Completed sentiment analysis", logger.IntField("currencies", len(verdicts)))
	return verdicts, nil
}

// CalculateActualSentiment computes actual-based verdicts for the window,
// restricted to indicators whose actual value has been back-filled. It is
// read-only: nothing is persisted.
func (s *sentimentService) CalculateActualSentiment(ctx context.Context, weekStart, weekEnd time.Time) (map[string]dto.ActualCurrencySentiment, error) {
	now := s.clock.Now().UTC()
	events, err := s.eventRepo.FindWeekEventsWithIndicators(ctx, weekStart, weekEnd, now, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query week events with actuals: %w", err)
	}

	if len(events) == 0 {
		s.logger.Warn("No events with actual data found for the specified week")
		return map[string]dto.ActualCurrencySentiment{}, nil
	}

	byCurrency := make(map[string][]dto.ActualEventSentiment)
	for _, event := range events {
		byCurrency[event.Currency] = append(byCurrency[event.Currency], s.CalculateActualEventSentiment(event))
	}

	verdicts := make(map[string]dto.ActualCurrencySentiment, len(byCurrency))
	for currency, currencyEvents := range byCurrency {
		verdicts[currency] = dto.ActualCurrencySentiment{
			Currency:         currency,
			Events:           currencyEvents,
			ActualResolution: s.ResolveActualCurrencyConflicts(currencyEvents),
			WeekStart:        weekStart.Format(time.RFC3339),
			WeekEnd:          weekEnd.Format(time.RFC3339),
		}
		metrics.SentimentComputations.WithLabelValues("actual").Inc()
	}

	s.logger.Info("Calculated actual sentiment", logger.IntField("currencies", len(verdicts)))
	return verdicts, nil
}

func (s *sentimentService) persistVerdicts(ctx context.Context, verdicts map[string]dto.CurrencySentiment, weekStart, weekEnd, now time.Time) error {
	for currency, verdict := range verdicts {
		details, err := json.Marshal(verdict)
		if err != nil {
			return fmt.Errorf("failed to marshal verdict for %s: %w", currency, err)
		}

		record := &entity.Sentiment{
			Currency:       currency,
			WeekStart:      weekStart.Truncate(24 * time.Hour),
			WeekEnd:        weekEnd.Truncate(24 * time.Hour),
			FinalSentiment: verdict.Resolution.FinalSentiment,
			Details:        details,
			ComputedAt:     now,
		}
		if err := s.sentimentRepo.Upsert(ctx, record); err != nil {
			return fmt.Errorf("failed to persist sentiment for %s: %w", currency, err)
		}
		s.logger.Info("Persisted sentiment",
			logger.StringField("currency", currency),
			logger.StringField("final_sentiment", verdict.Resolution.FinalSentiment))
	}
	return nil
}

// cacheVerdicts stores the latest verdict map in Redis for cheap API reads;
// a cache failure is logged and ignored.
func (s *sentimentService) cacheVerdicts(ctx context.Context, verdicts map[string]dto.CurrencySentiment) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(verdicts)
	if err != nil {
		s.logger.Error("Failed to marshal verdict cache", logger.ErrorField(err))
		return
	}
	if err := s.redisClient.Set(ctx, common.RedisKeyWeeklySentiments, payload, common.WeeklySentimentCacheExpiry).Err(); err != nil {
		s.logger.Error("Failed to cache weekly sentiments", logger.ErrorField(err))
	}
}
