package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/persistence"
)

const redisTimeout = time.Second

// Middleware returns a fixed-window per-IP limiter for the public
// intake endpoints. Redis being down or the limiter being disabled
// means requests pass: rate limiting protects capacity, it never
// gates availability.
func Middleware(cfg config.RedisConfig, store *persistence.Redis, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	window := cfg.RateLimitWindow()

	return func(c *fiber.Ctx) error {
		if !cfg.RateLimitEnabled || store == nil || store.Client == nil {
			return c.Next()
		}

		clientIP := c.IP()
		if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
			clientIP = forwarded
		}
		key := fmt.Sprintf("rate_limit:%s:%s", c.Route().Path, clientIP)

		ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
		defer cancel()

		count, err := store.Client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit check failed, allowing request", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			store.Client.Expire(ctx, key, window)
		}

		ttl, _ := store.Client.TTL(ctx, key).Result()

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RateLimitMax))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining(cfg.RateLimitMax, count)))
		c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))

		if count > int64(cfg.RateLimitMax) {
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":        "RATE_LIMITED",
					"message":     "Too many requests. Please try again later.",
					"retry_after": int(ttl.Seconds()),
				},
			})
		}
		return c.Next()
	}
}

func remaining(limit int, count int64) int64 {
	left := int64(limit) - count
	if left < 0 {
		return 0
	}
	return left
}
