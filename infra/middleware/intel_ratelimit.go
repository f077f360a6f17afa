package middleware

import (
	"strconv"

	"intel_server/pkg/apperr"
	"intel_server/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RateLimit admits each authenticated owner through limiter. It must run after JWTAuth.
func RateLimit(limiter ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := c.Locals(UserIDLocal).(uuid.UUID)
		if !ok {
			return c.Next()
		}

		allowed, wait := limiter.Allow(c.UserContext(), owner.String())
		if !allowed {
			err := apperr.RateLimited(wait)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(err.Details["retry_after"].(int)))
			return err
		}
		return c.Next()
	}
}
