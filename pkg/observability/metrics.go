// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the translation service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM streaming latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Translation outcome labels.
const (
	StatusCompleted = "completed"
	StatusErrored   = "errored"
	StatusRejected  = "rejected"
)

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_translate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simple_translate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// StreamingConnections tracks the number of active SSE streaming connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "simple_translate_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// TranslationsTotal counts translation sessions by terminal outcome.
	// Requests refused before a session starts are counted as "rejected".
	TranslationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_translate_translations_total",
			Help: "Translations by outcome",
		},
		[]string{"status"},
	)

	// ActiveTranslations tracks sessions between dispatch and terminal notification.
	ActiveTranslations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "simple_translate_translations_active",
			Help: "Active translation sessions",
		},
	)

	// TranslationDuration records the time from dispatch to the terminal notification.
	TranslationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simple_translate_translation_duration_seconds",
			Help:    "Translation duration",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// FirstTokenLatency records the time from dispatch to the first delivered delta.
	FirstTokenLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simple_translate_first_token_seconds",
			Help:    "Time to first token",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// DeltasTotal counts text fragments delivered to listeners.
	DeltasTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_translate_deltas_total",
			Help: "Delivered text deltas",
		},
		[]string{"provider", "model"},
	)

	// ProviderRequestsTotal counts requests sent to the LLM provider.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_translate_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records the time until the provider answered with headers.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simple_translate_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// SkippedEventsTotal counts stream events ignored because they could not be decoded.
	SkippedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_translate_skipped_events_total",
			Help: "Skipped stream events",
		},
		[]string{"provider", "reason"},
	)

	// HistoryOperationsTotal counts history store operations by outcome.
	HistoryOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_translate_history_operations_total",
			Help: "History store operations",
		},
		[]string{"store", "operation", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		TranslationsTotal,
		ActiveTranslations,
		TranslationDuration,
		FirstTokenLatency,
		DeltasTotal,
		ProviderRequestsTotal,
		ProviderLatency,
		SkippedEventsTotal,
		HistoryOperationsTotal,
	)
}
