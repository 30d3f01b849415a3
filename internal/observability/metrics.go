// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Monitor metrics
	TicksTotal      prometheus.Counter
	TickDuration    prometheus.Histogram
	TokensUpdated   prometheus.Counter
	TokensFailed    prometheus.Counter
	TokensRemoved   *prometheus.CounterVec
	TokensMonitored prometheus.Gauge
	AlertsTriggered *prometheus.CounterVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	RateLimitWaits   prometheus.Counter

	// Collector metrics
	CandlesFetched prometheus.Counter
	CandlesSaved   prometheus.Counter
	CollectRuns    *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulTick prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dexwatch"
	}

	return &Metrics{
		// Monitor metrics
		TicksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "ticks_total",
			Help:      "Total number of monitor ticks executed",
		}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tick_duration_seconds",
			Help:      "Monitor tick duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		TokensUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tokens_updated_total",
			Help:      "Total number of per-token updates applied",
		}),
		TokensFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tokens_failed_total",
			Help:      "Total number of per-token updates that failed",
		}),
		TokensRemoved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tokens_removed_total",
			Help:      "Total number of tokens removed from monitoring by reason",
		}, []string{"reason"}),
		TokensMonitored: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tokens_monitored",
			Help:      "Current number of tokens under surveillance",
		}),
		AlertsTriggered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "alerts_triggered_total",
			Help:      "Total number of price alerts fired by severity",
		}, []string{"severity"}),

		// Provider metrics
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of provider requests by outcome",
		}, []string{"outcome"}),
		RateLimitWaits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "rate_limit_waits_total",
			Help:      "Total number of 429 sleeps observed",
		}),

		// Collector metrics
		CandlesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "candles_fetched_total",
			Help:      "Total number of candles fetched from the provider",
		}),
		CandlesSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "candles_saved_total",
			Help:      "Total number of candles written to storage",
		}),
		CollectRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "runs_total",
			Help:      "Total number of collection runs by status",
		}, []string{"status"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_tick_timestamp",
			Help:      "Unix timestamp of last completed monitor tick",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProviderRequest counts one provider request by outcome
// (ok, rate_limited, transient, permanent, no_data).
func RecordProviderRequest(outcome string) {
	DefaultMetrics.ProviderRequests.WithLabelValues(outcome).Inc()
	if outcome == "rate_limited" {
		DefaultMetrics.RateLimitWaits.Inc()
	}
}

// RecordTick records one completed monitor tick.
func RecordTick(durationSeconds float64, completedAt int64) {
	DefaultMetrics.TicksTotal.Inc()
	DefaultMetrics.TickDuration.Observe(durationSeconds)
	DefaultMetrics.LastSuccessfulTick.Set(float64(completedAt))
}

// RecordTokenUpdated counts one applied per-token update.
func RecordTokenUpdated() {
	DefaultMetrics.TokensUpdated.Inc()
}

// RecordTokenFailed counts one failed per-token update.
func RecordTokenFailed() {
	DefaultMetrics.TokensFailed.Inc()
}

// RecordTokenRemoved counts one removal by reason.
func RecordTokenRemoved(reason string) {
	DefaultMetrics.TokensRemoved.WithLabelValues(reason).Inc()
}

// RecordAlert counts one fired alert by severity.
func RecordAlert(severity string) {
	DefaultMetrics.AlertsTriggered.WithLabelValues(severity).Inc()
}

// SetTokensMonitored updates the surveillance gauge.
func SetTokensMonitored(n int) {
	DefaultMetrics.TokensMonitored.Set(float64(n))
}

// RecordCandles counts fetched and saved candles for one collection run.
func RecordCandles(fetched, saved int) {
	DefaultMetrics.CandlesFetched.Add(float64(fetched))
	DefaultMetrics.CandlesSaved.Add(float64(saved))
}

// RecordCollectRun counts one collection run by status (ok, error, skipped).
func RecordCollectRun(status string) {
	DefaultMetrics.CollectRuns.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
