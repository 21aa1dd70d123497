package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter limits each client IP to ratePerSecond with the given burst.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, errorResponse{Error: "client not identified"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			slog.DebugContext(c.Request().Context(), "Ops API rate limit exceeded", "client", identifier, "path", c.Path())
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		},
	})
}
