package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jtiebel/formguard-api/internal/utils"
)

// JWTProtected returns a middleware that validates JWT bearer tokens for the
// admin surface. Websocket clients cannot set headers, so the token is also
// accepted via the access_token query parameter.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = strings.TrimSpace(c.Query("access_token"))
		}
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization required")
		}

		parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			if subject, ok := claims["sub"].(string); ok {
				c.Locals("admin_subject", subject)
			}
		}

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	authorization := c.Get(fiber.HeaderAuthorization)
	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(authorization[len(bearer):])
}
