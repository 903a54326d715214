// Package metrics defines the Prometheus metrics shared by the users API
// and the console. Metrics register with the default registry on import;
// both processes expose them at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "users"

// ── HTTP server metrics ───────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
// Labels:
//   - server: "api" or "console"
//   - method: HTTP method
//   - route: the matched route template (e.g. "/api/users/:id")
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled, by server, method, route and status.",
	},
	[]string{"server", "method", "route", "status"},
)

// HTTPRequestDuration measures request latency.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP request handling.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"server", "method", "route"},
)

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected with 429.",
	},
)

// ── Client metrics ────────────────────────────────────────────────────────────

// ClientRequestsTotal counts calls made by the console's REST client.
// Labels:
//   - op: client operation (e.g. "list", "create")
//   - outcome: "ok", "remote_error", "not_found" or "transport_error"
var ClientRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_requests_total",
		Help:      "Total number of users API calls made by the console, by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// ClientRequestDuration measures the round trip of client calls.
var ClientRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "client_request_duration_seconds",
		Help:      "Duration of users API calls made by the console.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Console metrics ───────────────────────────────────────────────────────────

// ConsoleSessions tracks the number of live console sessions.
var ConsoleSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "console_sessions",
		Help:      "Current number of console sessions.",
	},
)

// Middleware records request count and latency for the named server.
func Middleware(server string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(server, c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(server, c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
