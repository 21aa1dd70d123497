package httpserver

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodpulse/internal/metrics"
	"github.com/pscheid92/moodpulse/internal/platform/correlation"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// skipProbes keeps scrapes and health probes out of logs and request metrics.
func skipProbes(c echo.Context) bool {
	path := c.Path()
	return path == "/metrics" || strings.HasPrefix(path, "/health/")
}

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if skipProbes(c) {
			return next(c)
		}

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Response().Status)
		method := c.Request().Method

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		return nil
	}
}

type errorResponse struct {
	Error string `json:"error"`
}
