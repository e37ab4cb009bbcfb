package middleware

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// RequireSetupToken gates destructive maintenance endpoints behind a shared
// secret set at deploy time. Endpoints stay closed when the secret is unset.
func RequireSetupToken() fiber.Handler {
	expectedToken := os.Getenv("SETUP_TOKEN")

	return func(c *fiber.Ctx) error {
		if expectedToken == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "maintenance endpoints are disabled",
			})
		}
		if c.Get("X-Setup-Token") != expectedToken {
			log.Printf("🚫 [SETUP] Invalid setup token for %s", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "invalid setup token",
			})
		}
		return c.Next()
	}
}
