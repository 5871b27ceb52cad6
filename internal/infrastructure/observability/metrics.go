// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pharmstock"

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_operations_total",
		Help:      "Stock operations by type and outcome.",
	}, []string{"operation", "status"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stock_operation_duration_seconds",
		Help:      "Stock operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	shortfallUnits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispense_shortfall_units_total",
		Help:      "Units requested but not fulfilled by partial dispenses.",
	})

	txRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_retries_total",
		Help:      "Transactions retried after serialization or deadlock failures.",
	})
)

// ObserveOperation records one stock operation with its duration and outcome.
func ObserveOperation(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	operationsTotal.WithLabelValues(operation, status).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordShortfall accumulates unfulfilled units from partial dispenses.
func RecordShortfall(units int64) {
	if units > 0 {
		shortfallUnits.Add(float64(units))
	}
}

// RecordTxRetry counts a retried transaction attempt.
func RecordTxRetry() {
	txRetries.Inc()
}

// Handler returns the metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
