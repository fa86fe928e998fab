package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beerhive_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beerhive_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	engineOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beerhive_engine_operations_total",
			Help: "Total number of tab/draft/order operations",
		},
		[]string{"operation", "status"},
	)

	fulfillmentProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beerhive_fulfillment_processed_total",
			Help: "Kitchen orders processed by fulfillment workers",
		},
		[]string{"destination", "outcome"},
	)
)

// Middleware records request counters and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func RecordOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	engineOperations.WithLabelValues(operation, status).Inc()
}

func RecordFulfillment(destination, outcome string) {
	fulfillmentProcessed.WithLabelValues(destination, outcome).Inc()
}
