package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector manages Prometheus metrics for the gateway
type MetricsCollector struct {
	serviceName string
	registry    *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	activeConnections   prometheus.Gauge
	upstreamFailures    *prometheus.CounterVec
	upstreamDuration    *prometheus.HistogramVec
}

// NewMetricsCollector creates a collector with its own registry, so several
// gateways (and tests) can coexist in one process
func NewMetricsCollector(serviceName string) *MetricsCollector {
	// Sanitize service name for Prometheus (replace hyphens with underscores)
	name := strings.ReplaceAll(serviceName, "-", "_")

	mc := &MetricsCollector{
		serviceName: name,
		registry:    prometheus.NewRegistry(),
	}

	mc.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	mc.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	mc.activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: name + "_active_connections",
			Help: "Number of active connections",
		},
	)

	mc.upstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name + "_upstream_failures_total",
			Help: "Proxied requests that never got an upstream response",
		},
		[]string{"method"},
	)

	mc.upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name + "_upstream_duration_seconds",
			Help:    "Time spent waiting for the upstream service",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	mc.registry.MustRegister(
		mc.httpRequestsTotal,
		mc.httpRequestDuration,
		mc.activeConnections,
		mc.upstreamFailures,
		mc.upstreamDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return mc
}

// MetricsMiddleware returns middleware that collects HTTP metrics
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		mc.activeConnections.Inc()
		defer mc.activeConnections.Dec()

		c.Next()

		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		mc.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		mc.httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// ObserveUpstream records one upstream round trip
func (mc *MetricsCollector) ObserveUpstream(method string, status int, d time.Duration) {
	mc.upstreamDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// UpstreamFailed counts a request the upstream never answered
func (mc *MetricsCollector) UpstreamFailed(method string) {
	mc.upstreamFailures.WithLabelValues(method).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
