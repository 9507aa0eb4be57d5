package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GuardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_guard_decisions_total",
			Help: "Guard decisions by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	SignIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_sign_ins_total",
			Help: "Sign-in attempts by outcome",
		},
		[]string{"outcome"},
	)
	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_side_effect_failures_total",
			Help: "Post-commit side effects that failed",
		},
		[]string{"kind"},
	)
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

// Middleware records request counts and latencies per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			code := strconv.Itoa(status)
			httpRequestTotal.WithLabelValues(c.Request().Method, c.Path(), code).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, c.Path(), code).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
