package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/docvault/docvault/internal/web/session"
)

// openPaths are request prefixes reachable without a session: login, register
// and the SSO flow, plus the health endpoint.
var openPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/oidc",
	"/api/health",
}

// AuthMiddleware is a Fiber middleware that checks for user authentication.
// Every other /api route requires a session cookie resolving to an active
// principal; the authorization engine decides anything beyond that.
func AuthMiddleware(c *fiber.Ctx) error {
	originalURL := strings.ToLower(c.OriginalURL())

	for _, p := range openPaths {
		if strings.HasPrefix(originalURL, p) {
			return c.Next()
		}
	}

	// get session cookie
	sessionID := c.Cookies("session")
	if sessionID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Access token required"})
	}

	// check session validity
	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil || sessData.User.ID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	// inactive accounts are cut off even with a live session
	if !sessData.User.Active {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Account disabled"})
	}

	return c.Next()
}
