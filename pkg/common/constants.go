package common

import "time"

const (
	// Impact tiers as reported by the calendar feed. Only high-impact events
	// participate in sentiment and reconciliation.
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"

	// Sentiment labels.
	SentimentBullish              = "Bullish"
	SentimentBearish              = "Bearish"
	SentimentNeutral              = "Neutral"
	SentimentBullishConsolidation = "Bullish with Consolidation"
	SentimentBearishConsolidation = "Bearish with Consolidation"

	// Redis keys.
	RedisKeyReconcilerLock     = "reconciler.run.lock"
	RedisKeyWeeklySentiments   = "sentiment.weekly.latest"
	ReconcilerLockTTL          = 30 * time.Minute
	WeeklySentimentCacheExpiry = 6 * time.Hour
)
