// Package metrics exposes Prometheus collectors for the datasource. The Grafana
// plugin SDK serves the default registry, so collectors registered here show
// up on the plugin metrics endpoint.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sendgrid_datasource"

// Query outcome label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// QueriesTotal counts executed Grafana queries by outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Number of Grafana queries handled, by outcome.",
		},
		[]string{"status"},
	)

	// QueryDuration observes the time spent handling a single query.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time spent handling a single Grafana query.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ConcurrentQueries is the number of queries currently in flight.
	ConcurrentQueries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concurrent_queries",
			Help:      "Number of queries currently being handled.",
		},
	)

	// APIRequestsTotal counts HTTP calls to SendGrid by status code.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Number of requests sent to the SendGrid API, by HTTP status code.",
		},
		[]string{"code"},
	)
)

// RecordQuery records metrics for a completed query
func RecordQuery(duration time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	QueriesTotal.WithLabelValues(status).Inc()
	QueryDuration.Observe(duration.Seconds())
}

// IncrementConcurrentQueries increments the count of concurrent queries
func IncrementConcurrentQueries() {
	ConcurrentQueries.Inc()
}

// DecrementConcurrentQueries decrements the count of concurrent queries
func DecrementConcurrentQueries() {
	ConcurrentQueries.Dec()
}

// RecordAPIRequest counts one SendGrid call. A zero code means the request
// never got an HTTP response.
func RecordAPIRequest(code int) {
	APIRequestsTotal.WithLabelValues(codeLabel(code)).Inc()
}

func codeLabel(code int) string {
	if code == 0 {
		return "transport_error"
	}
	return strconv.Itoa(code)
}
