package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodpulse/internal/platform/version"
)

const readinessProbeTimeout = 5 * time.Second

// HealthCheck names one dependency the bot needs to serve updates.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type livenessResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
	Texts  int     `json:"texts"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

// handleLiveness answers from memory only, so it stays up while stores are down.
func (s *Server) handleLiveness(c echo.Context) error {
	resp := livenessResponse{
		Status: "ok",
		Uptime: s.clock.Since(s.startTime).Seconds(),
		Texts:  s.tallies.Len(),
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness probes every dependency and lists each result.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ready", Checks: make(map[string]string, len(s.healthChecks))}
	code := http.StatusOK
	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			resp.Checks[hc.Name] = err.Error()
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}

	if err := c.JSON(code, resp); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
