package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles write endpoints with a fixed-window redis
// counter, keyed by the authenticated user when present and by client
// IP otherwise.
type RateLimiter struct {
	redis *redis.Client
	log   *slog.Logger
}

func NewRateLimiter(redisClient *redis.Client, log *slog.Logger) *RateLimiter {
	return &RateLimiter{redis: redisClient, log: log}
}

// Limit wraps a route handler with a per-window request cap.
func (r *RateLimiter) Limit(op string, limit int, window time.Duration, next func(*core.RequestEvent) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if r.redis == nil {
			return next(e)
		}

		identity := e.RealIP()
		if e.Auth != nil {
			identity = "user:" + e.Auth.Id
		}
		key := fmt.Sprintf("ratelimit:%s:%s", op, identity)

		ctx := context.Background()
		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			// Redis being down must not take the endpoint with it.
			r.log.Warn("rate limiter unavailable", "op", op, "error", err)
			return next(e)
		}
		if count == 1 {
			r.redis.Expire(ctx, key, window)
		}
		if count > int64(limit) {
			return apis.NewApiError(http.StatusTooManyRequests,
				"Too many requests. Please try again later.", nil)
		}

		return next(e)
	}
}
