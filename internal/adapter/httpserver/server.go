package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodpulse/internal/app"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/config"
)

// tallyReader is the read side of the consensus ledger.
type tallyReader interface {
	Lookup(text string) (domain.VoteTally, bool)
	Top(limit int) []app.TallyEntry
	Len() int
}

type statsReader interface {
	Values() app.CounterValues
}

// Server is the ops HTTP surface: probes, build info, metrics and a read-only
// view of the vote ledger.
type Server struct {
	echo   *echo.Echo
	config *config.Config

	tallies      tallyReader
	stats        statsReader
	healthChecks []HealthCheck
	clock        clockwork.Clock
	startTime    time.Time
}

func NewServer(cfg *config.Config, tallies tallyReader, stats statsReader, healthChecks []HealthCheck, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		tallies:      tallies,
		stats:        stats,
		healthChecks: healthChecks,
		clock:        clock,
		startTime:    clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting ops server", "port", s.config.HTTPPort)
	if err := s.echo.Start(":" + s.config.HTTPPort); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
