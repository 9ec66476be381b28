package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CalendarScrapes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsa_calendar_scrapes_total",
		Help: "Total calendar snapshot fetches, labelled by outcome.",
	}, []string{"status"})

	CalendarScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fsa_calendar_scrape_duration_seconds",
		Help:    "Calendar snapshot fetch and parse latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// ReconcilerFailures counts reconciliation failures by category. The
	// category is observability-only and never changes control flow.
	ReconcilerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsa_reconciler_failures_total",
		Help: "Total reconciliation failures, labelled by category (network, parsing, storage, unknown).",
	}, []string{"category"})

	ReconcilerEventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fsa_reconciler_events_processed_total",
		Help: "Total pending events examined by reconciliation passes.",
	})

	ReconcilerEventsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fsa_reconciler_events_updated_total",
		Help: "Total indicators back-filled with an actual value.",
	})

	ReconcilerBreakerOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fsa_reconciler_breaker_opens_total",
		Help: "Times the calendar-source circuit breaker opened.",
	})

	SentimentComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsa_sentiment_computations_total",
		Help: "Total per-currency verdict computations, labelled by variant (forecast, actual).",
	}, []string{"variant"})

	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fsa_events_ingested_total",
		Help: "Total calendar entries processed by the ingest job.",
	})
)
