package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpq_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mpq_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpq_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpq_http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// Queue metrics
var (
	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpq_queue_length",
			Help: "Number of entries in the queue",
		},
	)

	QueueVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpq_queue_version",
			Help: "Current queue version",
		},
	)

	QueueEpoch = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpq_queue_epoch",
			Help: "Number of times the queue version wrapped around",
		},
	)

	QueueChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpq_queue_changes_total",
			Help: "Total number of queue change notifications",
		},
	)

	QueueEntriesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpq_queue_entries_removed_total",
			Help: "Total number of entries removed from the queue",
		},
	)

	QueueCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpq_queue_commands_total",
			Help: "Total number of queue commands by result",
		},
		[]string{"command", "result"}, // result is "ok" or an error kind
	)

	IdleWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpq_queue_idle_waiters",
			Help: "Number of clients blocked waiting for a queue change",
		},
	)
)

// State persistence metrics
var (
	StateSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpq_state_saves_total",
			Help: "Total number of queue snapshot saves",
		},
		[]string{"status"},
	)

	StateLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpq_state_loads_total",
			Help: "Total number of queue snapshot loads",
		},
		[]string{"status"},
	)

	StateLastSaveTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpq_state_last_save_timestamp",
			Help: "Unix timestamp of the last successful snapshot save",
		},
	)
)

// RecordCommand counts one queue command. kind is empty on success.
func RecordCommand(command, kind string) {
	if kind == "" {
		kind = "ok"
	}
	QueueCommandsTotal.WithLabelValues(command, kind).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
