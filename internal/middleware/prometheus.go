package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasagro_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasagro_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasagro_http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// PrometheusMiddleware records request metrics for every route except the
// metrics endpoint itself.
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.Contains(path, "/metrics") {
			return c.Next()
		}

		start := time.Now()

		httpActiveConnections.Inc()
		defer httpActiveConnections.Dec()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		method := c.Method()
		routePath := c.Route().Path
		if routePath == "" {
			routePath = path
		}

		httpRequestsTotal.WithLabelValues(method, routePath, status).Inc()
		httpRequestDuration.WithLabelValues(method, routePath).Observe(duration)

		return err
	}
}

// PrometheusHandler serves the /metrics scrape endpoint.
func PrometheusHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
