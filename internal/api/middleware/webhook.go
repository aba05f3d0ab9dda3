package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/telegram"
)

// PostOnly rejects every other method with 405
func PostOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			c.Set(fiber.HeaderAllow, fiber.MethodPost)
			return domain.ErrMethodNotAllowed
		}
		return c.Next()
	}
}

// WebhookSecret checks the secret token Telegram echoes on every update.
// An empty secret disables the check.
func WebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		got := c.Get(telegram.SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return domain.ErrUnauthorized
		}
		return c.Next()
	}
}
