// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "alertboard"

// Query labels
const (
	QuerySubjects      = "subjects"
	QueryGet           = "get"
	QueryList          = "list"
	QueryMonthlyCounts = "monthly_counts"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of engine queries, partitioned by query.",
		},
		[]string{"query"},
	)

	storeAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_alerts",
			Help:      "Number of alerts held by the store.",
		},
	)

	storeRejected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_rejected_records",
			Help:      "Number of source records rejected during the last load.",
		},
	)
)

// Register attaches the collectors to reg. Collectors already registered
// with reg are skipped.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDuration,
		queriesTotal,
		storeAlerts,
		storeRejected,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest records one served HTTP request
func ObserveRequest(path, method string, status int, latency time.Duration) {
	if path == "" {
		path = "unknown"
	}
	httpRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(path, method).Observe(latency.Seconds())
}

// IncQuery counts one engine query
func IncQuery(query string) {
	queriesTotal.WithLabelValues(query).Inc()
}

// SetStore publishes the outcome of the startup load
func SetStore(loaded, rejected int) {
	storeAlerts.Set(float64(loaded))
	storeRejected.Set(float64(rejected))
}
