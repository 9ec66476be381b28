package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/analyzer/metrics"
	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/internal/entity"
	"forex-sentiment-analyzer/pkg/common"
	"forex-sentiment-analyzer/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	snapshotCacheKey = "calendar.snapshot"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var nonNumericRe = regexp.MustCompile(`[^\d.-]`)

// Config holds scraper tunables.
type Config struct {
	BaseURL          string
	MaxRetries       int
	RetryDelay       time.Duration
	RequestTimeout   time.Duration
	SnapshotCacheTTL time.Duration
	RequestsPerMin   int
}

// ForexFactoryScraper fetches and parses the Forex Factory economic calendar.
// Snapshots are cached for a short TTL so a reconciliation pass over many
// pending events does not hammer the feed.
type ForexFactoryScraper struct {
	cfg       Config
	client    *http.Client
	limiter   *rate.Limiter
	cache     *cache.Cache
	auditRepo repository.AuditFailureRepository
	logger    *logger.Logger
}

// NewForexFactoryScraper creates a calendar scraper. auditRepo may be nil, in
// which case parse failures are only logged.
func NewForexFactoryScraper(cfg Config, auditRepo repository.AuditFailureRepository, log *logger.Logger) *ForexFactoryScraper {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.SnapshotCacheTTL == 0 {
		cfg.SnapshotCacheTTL = 5 * time.Minute
	}
	if cfg.RequestsPerMin == 0 {
		cfg.RequestsPerMin = 10
	}

	return &ForexFactoryScraper{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMin)), 1),
		cache:     cache.New(cfg.SnapshotCacheTTL, 2*cfg.SnapshotCacheTTL),
		auditRepo: auditRepo,
		logger:    log,
	}
}

// FetchSnapshot returns the current calendar snapshot, served from the
// in-memory cache when fresh.
func (s *ForexFactoryScraper) FetchSnapshot(ctx context.Context) ([]dto.CalendarEvent, error) {
	if cached, ok := s.cache.Get(snapshotCacheKey); ok {
		return cached.([]dto.CalendarEvent), nil
	}

	start := time.Now()
	events, err := s.scrape(ctx)
	metrics.CalendarScrapeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CalendarScrapes.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CalendarScrapes.WithLabelValues("ok").Inc()

	s.cache.Set(snapshotCacheKey, events, cache.DefaultExpiration)
	return events, nil
}

func (s *ForexFactoryScraper) scrape(ctx context.Context) ([]dto.CalendarEvent, error) {
	calendarURL := s.cfg.BaseURL + "/calendar.php"

	body, err := s.fetchWithRetry(ctx, calendarURL)
	if err != nil {
		return nil, err
	}

	events, err := s.parseCalendar(body)
	if err != nil {
		s.recordAuditFailure(ctx, calendarURL, err, body)
		return nil, err
	}

	s.logger.Info("Scraped calendar snapshot", logger.IntField("events", len(events)))
	return events, nil
}

func (s *ForexFactoryScraper) fetchWithRetry(ctx context.Context, url string) (string, error) {
	delay := s.cfg.RetryDelay
	var lastErr error

	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %v", ErrNetwork, err)
		}

		body, err := s.fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		s.logger.Warn("Calendar fetch failed",
			logger.StringField("url", url),
			logger.IntField("attempt", attempt),
			logger.ErrorField(err))

		if attempt < s.cfg.MaxRetries {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
			}
			delay *= 2
		}
	}

	return "", fmt.Errorf("%w: fetch failed after %d attempts: %v", ErrNetwork, s.cfg.MaxRetries, lastErr)
}

func (s *ForexFactoryScraper) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// parseCalendar extracts high-impact events from the calendar table. Date
// rows carry the day forward for the event rows beneath them.
func (s *ForexFactoryScraper) parseCalendar(html string) ([]dto.CalendarEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	table := doc.Find("table.calendar__table")
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: calendar table not found", ErrParse)
	}

	var events []dto.CalendarEvent
	var currentDate *time.Time
	now := time.Now().UTC()

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		dateCell := row.Find("td.calendar__date")
		if dateText := strings.TrimSpace(dateCell.Text()); dateText != "" {
			if parsed, ok := parseFeedDate(dateText, now); ok {
				currentDate = &parsed
			}
			return
		}

		impactSpan := row.Find("td.calendar__impact span")
		if impactSpan.Length() == 0 {
			return
		}
		impact := impactLevelFromClass(impactSpan.AttrOr("class", ""))
		if impact != common.ImpactHigh {
			return
		}

		currency := strings.TrimSpace(row.Find("td.calendar__currency").Text())
		eventName := strings.TrimSpace(row.Find("td.calendar__event").Text())
		if currency == "" || eventName == "" || currentDate == nil {
			return
		}

		scheduled := *currentDate
		if eventTime, ok := parseFeedTime(strings.TrimSpace(row.Find("td.calendar__time").Text())); ok {
			scheduled = time.Date(scheduled.Year(), scheduled.Month(), scheduled.Day(),
				eventTime.Hour(), eventTime.Minute(), 0, 0, time.UTC)
		}

		events = append(events, dto.CalendarEvent{
			Currency:          currency,
			EventName:         eventName,
			ScheduledDatetime: scheduled,
			ImpactLevel:       impact,
			PreviousValue:     parseNumericValue(row.Find("td.calendar__previous").Text()),
			ForecastValue:     parseNumericValue(row.Find("td.calendar__forecast").Text()),
			ActualValue:       parseNumericValue(row.Find("td.calendar__actual").Text()),
		})
	})

	return events, nil
}

func (s *ForexFactoryScraper) recordAuditFailure(ctx context.Context, url string, parseErr error, html string) {
	if s.auditRepo == nil {
		return
	}

	snippet := html
	if len(snippet) > 500 {
		snippet = snippet[:500]
	}
	failure := &entity.AuditFailure{
		URL:          url,
		ErrorType:    "PARSING_ERROR",
		ErrorMessage: parseErr.Error(),
		HTMLSnippet:  snippet,
	}
	if err := s.auditRepo.Create(ctx, failure); err != nil {
		s.logger.Error("Failed to record audit failure", logger.ErrorField(err))
	}
}

// impactLevelFromClass maps an impact icon class list such as
// "icon icon--ff-impact-3-high" to an impact tier.
func impactLevelFromClass(classAttr string) string {
	classAttr = strings.ToLower(classAttr)
	switch {
	case strings.Contains(classAttr, "high"):
		return common.ImpactHigh
	case strings.Contains(classAttr, "medium"):
		return common.ImpactMedium
	default:
		return common.ImpactLow
	}
}

// parseFeedDate parses day headers such as "Mon Jun 22". The feed omits the
// year; a date that lands more than six months ahead belongs to last year.
func parseFeedDate(text string, now time.Time) (time.Time, bool) {
	parsed, err := time.Parse("Mon Jan 2 2006", fmt.Sprintf("%s %d", text, now.Year()))
	if err != nil {
		return time.Time{}, false
	}
	if parsed.Sub(now) > 180*24*time.Hour {
		parsed = parsed.AddDate(-1, 0, 0)
	}
	return parsed.UTC(), true
}

// parseFeedTime parses cell values such as "8:30am".
func parseFeedTime(text string) (time.Time, bool) {
	if text == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse("3:04pm", strings.ToLower(text))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// parseNumericValue cleans cell values such as "0.3%" or "-2.1K"; empty and
// placeholder cells yield nil.
func parseNumericValue(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "N/A" || text == "-" {
		return nil
	}

	clean := nonNumericRe.ReplaceAllString(text, "")
	if clean == "" || clean == "-" || clean == "." {
		return nil
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil
	}
	return &value
}
