package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forex-sentiment-analyzer/internal/entity"
	"forex-sentiment-analyzer/pkg/common"
	"forex-sentiment-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calendarFixture = `
<html><body>
<table class="calendar__table">
  <tr>
    <td class="calendar__date">Tue Mar 4</td>
  </tr>
  <tr>
    <td class="calendar__time">8:30am</td>
    <td class="calendar__currency">USD</td>
    <td class="calendar__impact"><span class="icon icon--ff-impact-3-high"></span></td>
    <td class="calendar__event">Core PCE Price Index m/m</td>
    <td class="calendar__actual">0.3%</td>
    <td class="calendar__forecast">0.4%</td>
    <td class="calendar__previous">0.5%</td>
  </tr>
  <tr>
    <td class="calendar__time">10:00am</td>
    <td class="calendar__currency">EUR</td>
    <td class="calendar__impact"><span class="icon icon--ff-impact-2-medium"></span></td>
    <td class="calendar__event">German Factory Orders m/m</td>
    <td class="calendar__actual"></td>
    <td class="calendar__forecast">1.1%</td>
    <td class="calendar__previous">0.9%</td>
  </tr>
  <tr>
    <td class="calendar__time">1:30pm</td>
    <td class="calendar__currency">USD</td>
    <td class="calendar__impact"><span class="icon icon--ff-impact-3-high"></span></td>
    <td class="calendar__event">Unemployment Claims</td>
    <td class="calendar__actual"></td>
    <td class="calendar__forecast">230K</td>
    <td class="calendar__previous">212K</td>
  </tr>
</table>
</body></html>`

func testScraper(t *testing.T, cfg Config) *ForexFactoryScraper {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return NewForexFactoryScraper(cfg, nil, log)
}

func TestParseCalendar(t *testing.T) {
	s := testScraper(t, Config{})

	events, err := s.parseCalendar(calendarFixture)
	require.NoError(t, err)

	// The medium-impact row is dropped.
	require.Len(t, events, 2)

	pce := events[0]
	assert.Equal(t, "USD", pce.Currency)
	assert.Equal(t, "Core PCE Price Index m/m", pce.EventName)
	assert.Equal(t, common.ImpactHigh, pce.ImpactLevel)
	assert.Equal(t, time.March, pce.ScheduledDatetime.Month())
	assert.Equal(t, 4, pce.ScheduledDatetime.Day())
	assert.Equal(t, 8, pce.ScheduledDatetime.Hour())
	assert.Equal(t, 30, pce.ScheduledDatetime.Minute())
	require.NotNil(t, pce.ActualValue)
	assert.InDelta(t, 0.3, *pce.ActualValue, 1e-9)
	require.NotNil(t, pce.ForecastValue)
	assert.InDelta(t, 0.4, *pce.ForecastValue, 1e-9)

	claims := events[1]
	assert.Equal(t, "Unemployment Claims", claims.EventName)
	assert.Equal(t, 13, claims.ScheduledDatetime.Hour())
	assert.Nil(t, claims.ActualValue)
	require.NotNil(t, claims.ForecastValue)
	assert.InDelta(t, 230, *claims.ForecastValue, 1e-9)
}

func TestParseCalendarMissingTable(t *testing.T) {
	s := testScraper(t, Config{})

	_, err := s.parseCalendar("<html><body><p>maintenance</p></body></html>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseNumericValue(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"0.3%", ptr(0.3)},
		{"-2.1%", ptr(-2.1)},
		{"230K", ptr(230)},
		{"<1.5>", ptr(1.5)},
		{"", nil},
		{"N/A", nil},
		{"-", nil},
	}
	for _, tc := range cases {
		got := parseNumericValue(tc.in)
		if tc.want == nil {
			assert.Nil(t, got, tc.in)
			continue
		}
		require.NotNil(t, got, tc.in)
		assert.InDelta(t, *tc.want, *got, 1e-9, tc.in)
	}
}

func ptr(v float64) *float64 { return &v }

func TestParseFeedDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	parsed, ok := parseFeedDate("Tue Mar 4", now)
	require.True(t, ok)
	assert.Equal(t, 2025, parsed.Year())

	// A day far in the future belongs to the previous year.
	parsed, ok = parseFeedDate("Mon Dec 22", now)
	require.True(t, ok)
	assert.Equal(t, 2024, parsed.Year())

	_, ok = parseFeedDate("not a date", now)
	assert.False(t, ok)
}

func TestImpactLevelFromClass(t *testing.T) {
	assert.Equal(t, common.ImpactHigh, impactLevelFromClass("icon icon--ff-impact-3-high"))
	assert.Equal(t, common.ImpactMedium, impactLevelFromClass("icon icon--ff-impact-2-medium"))
	assert.Equal(t, common.ImpactLow, impactLevelFromClass("icon"))
}

func TestFetchSnapshotCachesResult(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(calendarFixture))
	}))
	defer server.Close()

	s := testScraper(t, Config{
		BaseURL:          server.URL,
		SnapshotCacheTTL: time.Minute,
		RequestsPerMin:   600,
	})

	first, err := s.FetchSnapshot(context.Background())
	require.NoError(t, err)
	second, err := s.FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits)
}

func TestFetchWithRetryRecovers(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(calendarFixture))
	}))
	defer server.Close()

	s := testScraper(t, Config{
		BaseURL:        server.URL,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
		RequestsPerMin: 600,
	})

	events, err := s.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 3, hits)
}

// recordingAuditRepo captures audit rows without a database.
type recordingAuditRepo struct {
	failures []*entity.AuditFailure
}

func (r *recordingAuditRepo) Create(_ context.Context, failure *entity.AuditFailure) error {
	r.failures = append(r.failures, failure)
	return nil
}

func (r *recordingAuditRepo) FindUnresolved(context.Context, int) ([]entity.AuditFailure, error) {
	return nil, nil
}

func TestParseFailureIsAudited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>layout changed</body></html>"))
	}))
	defer server.Close()

	log, err := logger.New("error", "console")
	require.NoError(t, err)
	auditRepo := &recordingAuditRepo{}
	s := NewForexFactoryScraper(Config{
		BaseURL:        server.URL,
		MaxRetries:     1,
		RequestsPerMin: 600,
	}, auditRepo, log)

	_, err = s.FetchSnapshot(context.Background())
	require.Error(t, err)
	require.Len(t, auditRepo.failures, 1)
	assert.Equal(t, "PARSING_ERROR", auditRepo.failures[0].ErrorType)
	assert.NotEmpty(t, auditRepo.failures[0].HTMLSnippet)
}
