package llm

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned by RateLimiter.Allow when the acting user has
// exhausted the per-window call budget. It is retryable: callers back off
// and retry up to a bounded attempt ceiling.
var ErrRateLimited = NewError(ErrorTypeRateLimit, "per-user call budget exhausted", true, nil)

// RateLimiter enforces a maximum model-calls-per-time-window budget per
// acting user. With a Redis client the window is shared across instances;
// without one it falls back to an in-process sliding window.
type RateLimiter struct {
	maxCalls int
	window   time.Duration
	redis    *redis.Client

	mu      sync.Mutex
	history map[string][]time.Time

	// now is overridable in tests.
	now func() time.Time
}

// NewRateLimiter creates a limiter allowing maxCalls per window per user.
// redisClient may be nil, in which case the window is process-local.
func NewRateLimiter(maxCalls int, window time.Duration, redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{
		maxCalls: maxCalls,
		window:   window,
		redis:    redisClient,
		history:  make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow consumes one slot of the user's budget, or returns ErrRateLimited
// if the budget is exhausted. The failure is distinguishable from provider
// rate limiting only by its message; both carry the rate_limit error type.
func (rl *RateLimiter) Allow(ctx context.Context, userID string) error {
	if rl.redis != nil {
		return rl.allowRedis(ctx, userID)
	}
	return rl.allowLocal(userID)
}

func (rl *RateLimiter) allowLocal(userID string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	recent := rl.history[userID][:0]
	for _, t := range rl.history[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.maxCalls {
		rl.history[userID] = recent
		return ErrRateLimited
	}

	rl.history[userID] = append(recent, now)
	return nil
}

// allowRedis keeps the same sliding window in a per-user sorted set
// scored by call time, so the budget is shared across instances and a
// burst at a window edge cannot admit double the budget. Check-then-add
// is not atomic across instances; the window is a budget guard, not an
// exact quota.
func (rl *RateLimiter) allowRedis(ctx context.Context, userID string) error {
	key := fmt.Sprintf("ratelimit:llm:%s", userID)
	now := rl.now()
	cutoff := now.Add(-rl.window).UnixMilli()

	pipe := rl.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		// Redis being down must not block queries; fall back to the
		// local window for this call.
		return rl.allowLocal(userID)
	}

	if card.Val() >= int64(rl.maxCalls) {
		return ErrRateLimited
	}

	// The TTL is a cleanup backstop for idle users; pruning above is
	// what resets the budget, so a failed EXPIRE only leaks the key.
	pipe = rl.redis.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d:%s", now.UnixNano(), uuid.NewString()),
	})
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return rl.allowLocal(userID)
	}

	return nil
}
