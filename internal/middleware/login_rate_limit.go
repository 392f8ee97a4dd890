package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/mockpay/internal/metrics"
)

const loginRateLimitPrefix = "rl:login:"

// LoginRateLimit limits login attempts per phone (the username field) or, when
// absent, per client IP. It is a no-op without Redis and fails open on cache errors.
func LoginRateLimit(cache *redis.Client, maxPerMin int, recorder metrics.Recorder) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Username string `json:"username" form:"username"`
		}
		_ = c.BodyParser(&req)
		subject := strings.TrimSpace(req.Username)
		if subject == "" {
			subject = c.IP()
		}

		ctx := c.UserContext()
		key := loginRateLimitPrefix + subject

		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		if _, err := cache.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		}); err != nil {
			return c.Next()
		}

		// A counter without a TTL would lock the subject out for good, whether it
		// was just created or an earlier Expire failed.
		if ttl.Val() < 0 {
			if err := cache.Expire(ctx, key, time.Minute).Err(); err != nil {
				cache.Del(ctx, key)
				return c.Next()
			}
		}
		if incr.Val() > int64(maxPerMin) {
			recorder.RecordLoginRateLimited()
			return fiber.NewError(http.StatusTooManyRequests, "Too many login attempts, try again later")
		}
		return c.Next()
	}
}
