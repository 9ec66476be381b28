package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/pkg/common"
	"forex-sentiment-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChannel struct {
	messages []string
	err      error
}

func (s *stubChannel) Send(_ context.Context, message string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, message)
	return nil
}

func TestMultiDeliversToAllChannels(t *testing.T) {
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	healthy := &stubChannel{}
	broken := &stubChannel{err: errors.New("webhook gone")}
	other := &stubChannel{}

	multi := NewMulti(log, healthy, broken, other)
	require.NoError(t, multi.Send(context.Background(), "hello"))

	assert.Equal(t, []string{"hello"}, healthy.messages)
	assert.Equal(t, []string{"hello"}, other.messages)
}

func TestParseWebhookURL(t *testing.T) {
	id, token, err := parseWebhookURL("https://discord.com/api/webhooks/123456789/abc-def_ghi")
	require.NoError(t, err)
	assert.Equal(t, "123456789", id)
	assert.Equal(t, "abc-def_ghi", token)

	_, _, err = parseWebhookURL("https://discord.com/not/a/webhook")
	assert.Error(t, err)
}

func TestFormatWeeklyVerdicts(t *testing.T) {
	verdicts := map[string]dto.CurrencySentiment{
		"USD": {
			Currency: "USD",
			Resolution: dto.Resolution{
				FinalSentiment:     common.SentimentBullish,
				EventCount:         3,
				SentimentBreakdown: dto.SentimentBreakdown{Bullish: 2, Bearish: 1},
			},
		},
		"EUR": {
			Currency: "EUR",
			Resolution: dto.Resolution{
				FinalSentiment:     common.SentimentBearishConsolidation,
				EventCount:         2,
				SentimentBreakdown: dto.SentimentBreakdown{Bullish: 1, Bearish: 1},
			},
		},
	}

	msg := FormatWeeklyVerdicts(verdicts, "2025-03-03", "2025-03-09")
	assert.Contains(t, msg, "USD")
	assert.Contains(t, msg, common.SentimentBullish)
	assert.Contains(t, msg, "Bearish with Consolidation")
	// Alphabetical: EUR before USD.
	assert.Less(t, strings.Index(msg, "EUR"), strings.Index(msg, "USD"))
}

func TestFormatWeeklyVerdictsEmpty(t *testing.T) {
	msg := FormatWeeklyVerdicts(nil, "2025-03-03", "2025-03-09")
	assert.Contains(t, msg, "No high-impact events")
}
