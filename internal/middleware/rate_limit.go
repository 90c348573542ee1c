package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit creates a per-client rate limiter. Evaluations are cheap but the
// endpoint is internet-facing, so abusive clients are cut off by IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 30
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return fmt.Sprintf("%s:%s", identifier, c.IP())
		},
	})
}
