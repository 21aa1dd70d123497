package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCooldown is the minimum gap between two accepted requests from one user.
const DefaultCooldown = 10 * time.Second

// MemoryRateLimiter keeps each user's last accepted request time in process memory.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[int64]time.Time
}

func NewMemoryRateLimiter(cooldown time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		cooldown: cooldown,
		last:     make(map[int64]time.Time),
	}
}

// Allow accepts the first request of a user unconditionally and every later one
// whose distance to the last accepted request is at least the cooldown.
func (r *MemoryRateLimiter) Allow(_ context.Context, userID int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.last[userID]; ok && now.Sub(last) < r.cooldown {
		return false, nil
	}
	r.last[userID] = now
	return true, nil
}

// Prune forgets users whose cooldown has long expired. Their next request is
// allowed either way, so dropping them does not change any decision.
func (r *MemoryRateLimiter) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for userID, last := range r.last {
		if now.Sub(last) >= r.cooldown {
			delete(r.last, userID)
			pruned++
		}
	}
	return pruned
}

// StartPruneTimer prunes expired users every interval until the returned stop
// function is called.
func (r *MemoryRateLimiter) StartPruneTimer(clock clockwork.Clock, interval time.Duration) func() {
	ticker := clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if pruned := r.Prune(clock.Now()); pruned > 0 {
					slog.Debug("Pruned rate limiter entries", "count", pruned)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
