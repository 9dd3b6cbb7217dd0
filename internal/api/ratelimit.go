package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nkoval/parley/internal/redis"
)

// RateLimitConfig sets the fixed window for one middleware instance.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// Prefix separates counters between route groups sharing one Redis.
	Prefix string
}

// RateLimitMiddleware enforces a fixed-window per-client limit backed by
// Redis. Authenticated requests are keyed by user ID, anonymous ones by
// remote IP. Redis failures fail open: the request proceeds.
func RateLimitMiddleware(rc *redis.Client, logger *slog.Logger, cfg RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Prefix + ":"
			if uid, ok := c.Get("user_id").(int64); ok {
				key += fmt.Sprintf("u:%d", uid)
			} else {
				key += "ip:" + c.RealIP()
			}

			allowed, count, ttlMs, err := rc.CheckRateLimit(c.Request().Context(), key, cfg.Limit, cfg.Window)
			if err != nil {
				logger.Warn("rate limit check failed", "key", key, "error", err)
				return next(c)
			}

			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
			h.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			h.Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Duration(ttlMs)*time.Millisecond).Unix()))

			if !allowed {
				h.Set("Retry-After", fmt.Sprintf("%d", (ttlMs+999)/1000))
				return errorJSON(c, http.StatusTooManyRequests, "RATE_LIMITED", "you are being rate limited")
			}
			return next(c)
		}
	}
}
