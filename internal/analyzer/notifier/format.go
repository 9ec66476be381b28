package notifier

import (
	"fmt"
	"sort"
	"strings"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/pkg/common"
)

func sentimentEmoji(label string) string {
	switch label {
	case common.SentimentBullish, common.SentimentBullishConsolidation:
		return "🟢"
	case common.SentimentBearish, common.SentimentBearishConsolidation:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatWeeklyVerdicts renders the per-currency verdict map as a compact
// digest, currencies in alphabetical order.
func FormatWeeklyVerdicts(verdicts map[string]dto.CurrencySentiment, weekStart, weekEnd string) string {
	var sb strings.Builder
	sb.WriteString("*Weekly Forex Sentiment*\n")
	sb.WriteString(fmt.Sprintf("_%s — %s_\n\n", weekStart, weekEnd))

	if len(verdicts) == 0 {
		sb.WriteString("No high-impact events this week.")
		return sb.String()
	}

	currencies := make([]string, 0, len(verdicts))
	for currency := range verdicts {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	for _, currency := range currencies {
		verdict := verdicts[currency]
		res := verdict.Resolution
		sb.WriteString(fmt.Sprintf("%s *%s*: %s (%d bullish / %d bearish / %d neutral of %d events)\n",
			sentimentEmoji(res.FinalSentiment), currency, res.FinalSentiment,
			res.SentimentBreakdown.Bullish, res.SentimentBreakdown.Bearish,
			res.SentimentBreakdown.Neutral, res.EventCount))
	}
	return sb.String()
}

// FormatHealthAlert renders an operator alert for a degraded collection
// pipeline.
func FormatHealthAlert(report dto.HealthReport) string {
	var sb strings.Builder
	sb.WriteString("⚠️ *Actual-Value Collection Degraded*\n\n")
	sb.WriteString(fmt.Sprintf("Success rate: %.0f%% over last %d runs\n", report.SuccessRate*100, report.RunsExamined))
	if report.HoursSinceLastRun != nil {
		sb.WriteString(fmt.Sprintf("Last run: %.1f hours ago\n", *report.HoursSinceLastRun))
	} else {
		sb.WriteString("Last run: never\n")
	}
	if report.UnresolvedParseFailures > 0 {
		sb.WriteString(fmt.Sprintf("Unresolved parse failures: %d\n", report.UnresolvedParseFailures))
	}
	for _, issue := range report.Issues {
		sb.WriteString(fmt.Sprintf("- %s\n", issue))
	}
	return sb.String()
}
