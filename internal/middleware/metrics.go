package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequestsTotal counts gateway requests by route, method and status
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liver_gateway_requests_total",
		Help: "Total gateway HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// httpRequestDuration tracks gateway request latency
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "liver_gateway_request_duration_seconds",
		Help:    "Gateway HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"route", "method"})

	// predictionOutcomes counts predictions by outcome or error kind
	predictionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liver_predictions_total",
		Help: "Prediction submissions by result",
	}, []string{"result"})
)

// Metrics records request counts and latency per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// ObservePrediction counts one submission result: "healthy", "disease",
// "invalid_input" or an error kind.
func ObservePrediction(result string) {
	predictionOutcomes.WithLabelValues(result).Inc()
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
