package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CaptureEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_events_total",
			Help: "Total number of OS callbacks received per capture pipeline (count)",
		},
		[]string{"pipeline", "status"},
	)

	CaptureRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_records_total",
			Help: "Total number of candidate message records produced per pipeline (count)",
		},
		[]string{"pipeline"},
	)

	CaptureExtractionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_extraction_errors_total",
			Help: "Total number of extraction failures caught at the pipeline boundary (count)",
		},
		[]string{"pipeline"},
	)

	CaptureProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capture_processing_duration_ms",
			Help:    "Time spent handling one OS callback in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"pipeline"},
	)

	CaptureSlowEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_slow_events_total",
			Help: "Total number of callbacks that exceeded the notification timeout budget (count)",
		},
		[]string{"pipeline"},
	)

	CaptureTimestampPatternTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_timestamp_pattern_total",
			Help: "Timestamp inference outcomes; matched clock values are not yet used (count)",
		},
		[]string{"result"},
	)

	ScrapedNodesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_nodes_visited_total",
			Help: "Total number of accessibility nodes visited by the tree scraper (count)",
		},
	)

	DeduplicateMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_messages_total",
			Help: "Total number of records checked against the dedup cache (count)",
		},
		[]string{"status"},
	)

	DedupCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_cache_size",
			Help: "Current number of fingerprints held by the dedup cache (count)",
		},
	)

	DedupCacheResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_cache_resets_total",
			Help: "Total number of full cache clears triggered by overflow (count)",
		},
	)

	ForwardedRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forwarder_records_total",
			Help: "Records handed to the boundary channel by outcome (count)",
		},
		[]string{"channel", "status"},
	)

	BoundaryPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boundary_publish_total",
			Help: "Envelopes leaving the kafka boundary queue by outcome (count)",
		},
		[]string{"topic", "status"},
	)

	BoundarySessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "boundary_sessions_active",
			Help: "Number of host sessions attached to the websocket boundary (count)",
		},
	)

	ChannelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_calls_total",
			Help: "Method channel invocations from the host (count)",
		},
		[]string{"channel", "method", "status"},
	)

	LifecycleState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "capture_lifecycle_state",
			Help: "Lifecycle state (0=uninitialized, 1=connected, 2=destroyed) (state code)",
		},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of messages sent to DLQ (count)",
		},
		[]string{"service", "topic", "reason"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once; tests build several apps in one process.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CaptureEventsTotal,
			CaptureRecordsTotal,
			CaptureExtractionErrorsTotal,
			CaptureProcessingDuration,
			CaptureSlowEventsTotal,
			CaptureTimestampPatternTotal,
			ScrapedNodesTotal,
			DeduplicateMessagesTotal,
			DedupCacheSize,
			DedupCacheResetsTotal,
			ForwardedRecordsTotal,
			BoundaryPublishTotal,
			BoundarySessionsActive,
			ChannelCallsTotal,
			LifecycleState,
			RetryAttemptsTotal,
			DLQMessagesTotal,
			KafkaMessagesReadTotal,
			KafkaMessagesWrittenTotal,
			KafkaWriteDuration,
			CircuitBreakerState,
			CircuitBreakerRequests,
			CircuitBreakerFailures,
			RateLimitRequestsTotal,
		)
	})
}

func ObserveCaptureDuration(pipeline string, duration time.Duration) {
	CaptureProcessingDuration.WithLabelValues(pipeline).Observe(float64(duration.Microseconds()) / 1000)
}

func SetDedupCacheSize(size int) {
	DedupCacheSize.Set(float64(size))
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}
