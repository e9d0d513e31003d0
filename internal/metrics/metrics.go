// Package metrics provides Prometheus metrics for the folder file server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folderchat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folderchat_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	fileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folderchat_file_operations_total",
			Help: "File operations by name and result (ok or error kind)",
		},
		[]string{"operation", "result"},
	)

	fileBytesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folderchat_file_bytes_read_total",
			Help: "Total bytes read from files under the root",
		},
	)

	wsClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folderchat_ws_clients",
			Help: "Number of connected change-notification clients",
		},
	)
)

// RecordHTTPRequest records a finished HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOperation records the outcome of list_files or read_file.
func RecordOperation(operation, result string) {
	fileOperationsTotal.WithLabelValues(operation, result).Inc()
}

// AddBytesRead adds to the bytes-read counter.
func AddBytesRead(n int64) {
	if n > 0 {
		fileBytesRead.Add(float64(n))
	}
}

// WSClientConnected increments the connected client gauge.
func WSClientConnected() {
	wsClients.Inc()
}

// WSClientDisconnected decrements the connected client gauge.
func WSClientDisconnected() {
	wsClients.Dec()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
