package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CorrelationID middleware ensures every request carries a correlation
// identifier so an evaluation can be traced back from logs and review events.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		incoming := strings.TrimSpace(c.Get("X-Correlation-ID"))
		if incoming == "" {
			incoming = strings.TrimSpace(c.Get("X-Request-ID"))
		}
		if incoming == "" {
			incoming = uuid.NewString()
		}

		c.Locals("correlation_id", incoming)
		c.Set("X-Correlation-ID", incoming)

		return c.Next()
	}
}

// GetCorrelationID returns the correlation identifier bound to the request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if value := c.Locals("correlation_id"); value != nil {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
