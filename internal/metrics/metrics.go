package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors:
// - http_requests_total: requests by route, method and status
// - http_request_duration_seconds: request latency by route and method
// - storage_operations_total: object store calls by operation and result
// - compensations_total: rollback attempts after a failed replace, by outcome
var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "memedepot", Name: "http_requests_total", Help: "HTTP requests by route, method and status."},
		[]string{"service", "path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "memedepot", Name: "http_request_duration_seconds", Help: "HTTP request latency in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"service", "path", "method"},
	)
	StorageOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "memedepot", Name: "storage_operations_total", Help: "Object store operations by result."},
		[]string{"operation", "result"},
	)
	Compensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "memedepot", Name: "compensations_total", Help: "Rollbacks of replacement objects by outcome."},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, StorageOperations, Compensations)
}

// Handler returns a middleware recording request count and latency.
func Handler(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPLatency.WithLabelValues(service, path, c.Request.Method).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(service, path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// ObserveStorage counts one object store call.
func ObserveStorage(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StorageOperations.WithLabelValues(operation, result).Inc()
}

// Exposer serves the default Prometheus registry.
func Exposer() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
