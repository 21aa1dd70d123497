package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

var _ domain.RateLimiter = (*RateLimiter)(nil)

// RateLimiter enforces the per-user cooldown across bot replicas. The cooldown
// key is only written when the request is accepted; a rejected request leaves
// the running cooldown untouched.
type RateLimiter struct {
	rdb      *goredis.Client
	cooldown time.Duration
}

func NewRateLimiter(rdb *goredis.Client, cooldown time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, cooldown: cooldown}
}

// Allow ignores now: expiry is measured by the Redis server clock.
func (r *RateLimiter) Allow(ctx context.Context, userID int64, _ time.Time) (bool, error) {
	if r.cooldown <= 0 {
		return true, nil
	}

	args := goredis.SetArgs{TTL: r.cooldown, Mode: "NX"}
	_, err := r.rdb.SetArgs(ctx, cooldownKey(userID), "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check cooldown: %w", err)
	}
	return true, nil
}

func cooldownKey(userID int64) string {
	return "moodpulse:cooldown:" + strconv.FormatInt(userID, 10)
}
