// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"travel-price-watch/internal/domain"
)

// Error kinds used as the "kind" label of ErrorsTotal.
const (
	ErrorKindUserLoad   = "user_load"
	ErrorKindResolution = "resolution"
	ErrorKindUpdate     = "update"
	ErrorKindDispatch   = "dispatch"
	ErrorKindHistory    = "history"
	ErrorKindPanic      = "panic"
)

// Run statuses used as the "status" label of RunsTotal.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusSkipped   = "skipped"
)

// Metrics holds all Prometheus metrics for the application.
// All Record methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Run metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	LastSuccessfulRun prometheus.Gauge

	// Engine counters
	UsersProcessed    prometheus.Counter
	ItemsProcessed    prometheus.Counter
	NotificationsSent prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec

	// Collaborator metrics
	ProviderCallLatency *prometheus.HistogramVec
	ChannelDeliveries   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "travel_price_watch"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total number of engine runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Engine run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last completed run",
		}),

		UsersProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "users_processed_total",
			Help:      "Total number of users whose items were processed",
		}),
		ItemsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "items_processed_total",
			Help:      "Total number of eligible tracked items considered",
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "notifications_sent_total",
			Help:      "Total number of price alert notification events",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Total number of engine errors by kind",
		}, []string{"kind"}),

		ProviderCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "call_latency_seconds",
			Help:      "Pricing provider call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
		ChannelDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Total number of notification deliveries by channel and outcome",
		}, []string{"channel", "outcome"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint serving g.
// A nil g serves the default registry.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(status string, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == RunStatusSkipped {
		return
	}
	m.RunDuration.Observe(duration.Seconds())
	if status == RunStatusCompleted {
		m.LastSuccessfulRun.Set(float64(finishedAt.Unix()))
	}
}

// RecordSummary adds a run's counters to the engine totals.
func (m *Metrics) RecordSummary(s domain.RunSummary) {
	if m == nil {
		return
	}
	m.UsersProcessed.Add(float64(s.ProcessedUsers))
	m.ItemsProcessed.Add(float64(s.ProcessedItems))
	m.NotificationsSent.Add(float64(s.NotificationsSent))
}

// RecordError records one engine error of the given kind.
func (m *Metrics) RecordError(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordProviderCall records pricing provider latency.
func (m *Metrics) RecordProviderCall(provider string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCallLatency.WithLabelValues(provider, outcome(err)).Observe(duration.Seconds())
}

// RecordDelivery records one notification channel delivery attempt.
func (m *Metrics) RecordDelivery(channel string, err error) {
	if m == nil {
		return
	}
	m.ChannelDeliveries.WithLabelValues(channel, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
