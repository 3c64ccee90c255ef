package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	rateLimitKeyPrefix = "ratelimit:"
	rateLimitWindow    = 60 * time.Second
)

// PublicRateLimit throttles the unauthenticated endpoints per client IP and
// path with a fixed Redis window. It fails open: a nil client (Redis not
// configured) or a Redis error lets the request through rather than taking
// the public surface down with the cache.
func PublicRateLimit(client *redis.Client, limitPerMin int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || limitPerMin <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("%s%s:%s", rateLimitKeyPrefix, c.IP(), c.Path())
		count, err := client.Incr(c.Context(), key).Result()
		if err != nil {
			log.Warn().Err(err).Msg("rate limit check failed, allowing request")
			return c.Next()
		}
		if count == 1 {
			client.Expire(c.Context(), key, rateLimitWindow)
		}

		remaining := int64(limitPerMin) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limitPerMin))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limitPerMin) {
			c.Set("Retry-After", "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded",
			})
		}
		return c.Next()
	}
}
