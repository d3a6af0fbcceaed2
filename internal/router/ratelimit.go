package router

import (
	"strconv"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/metrics"
)

// RateLimiter throttles unauthenticated auth routes per route and client IP.
// It fails open when Redis is missing or unreachable.
type RateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	log     zerolog.Logger
}

// NewRateLimiter allows perMinute requests per minute. A nil client or a
// non-positive rate disables limiting.
func NewRateLimiter(rdb *redis.Client, perMinute int, log zerolog.Logger) *RateLimiter {
	rl := &RateLimiter{log: log}
	if rdb != nil && perMinute > 0 {
		rl.limiter = redis_rate.NewLimiter(rdb)
		rl.limit = redis_rate.PerMinute(perMinute)
	}
	return rl
}

func rateLimitKey(c echo.Context) string {
	return "ratelimit:" + c.Path() + ":" + c.RealIP()
}

// Middleware returns the echo middleware enforcing the limit.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl.limiter == nil {
				return next(c)
			}

			key := rateLimitKey(c)
			res, err := rl.limiter.Allow(c.Request().Context(), key, rl.limit)
			if err != nil {
				rl.log.Warn().Err(err).Str("key", key).Msg("rate limiter error, failing open")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if res.Allowed == 0 {
				retryAfter := int(res.RetryAfter / time.Second)
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				metrics.RateLimitedTotal.WithLabelValues(c.Path()).Inc()
				return apperrors.ErrRateLimited
			}
			return next(c)
		}
	}
}
