package domain

import (
	"context"
	"time"
)

// RateLimiter throttles inbound requests per user.
type RateLimiter interface {
	// Allow reports whether userID may make a request at now. An allowed call
	// records now as the user's last request; a rejected call changes nothing.
	Allow(ctx context.Context, userID int64, now time.Time) (bool, error)
}
