package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pscheid92/moodpulse/internal/platform/retry"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient parses redisURL, installs the metrics and circuit breaker hooks and
// waits until the server answers a PING.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	rdb.AddHook(&MetricsHook{})
	rdb.AddHook(NewCircuitBreakerHook())

	policy := retry.Startup
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Redis not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	}
	if err := retry.DoVoid(ctx, policy, retry.Transient, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("Redis connected", "addr", opts.Addr, "db", opts.DB)
	return rdb, nil
}
