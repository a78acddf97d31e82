package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDHeader carries the caller identity.
	UserIDHeader = "x-user-id"
	// UserIDKey is the fiber Locals key holding the resolved user id.
	UserIDKey = "user_id"
)

// UserIdentity resolves the caller from the x-user-id header, falling back to
// defaultUserID. The header is trusted as-is; there is no authentication.
func UserIdentity(defaultUserID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(UserIDHeader))
		if userID == "" {
			userID = defaultUserID
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the id stored by UserIdentity.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserIDKey).(string)
	return userID
}
