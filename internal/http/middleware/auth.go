package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"beaconly/internal/admin"
)

// UserLocalKey is where the authenticated admin user is stored on the
// request context when a valid bearer token is presented.
const UserLocalKey = "admin_user"

// Identify resolves the Authorization bearer token into an admin user and
// stores it in the request locals. Requests without a token, or with an
// invalid one, still pass through: the read endpoints are open and the
// token only identifies who is asking.
func Identify(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			token := strings.TrimSpace(header[len(prefix):])
			if token != "" {
				user, ok, err := admin.ValidateToken(db, token)
				if err != nil {
					logger.Warn("token validation failed", "error", err)
				} else if ok {
					c.Locals(UserLocalKey, user)
				}
			}
		}
		return c.Next()
	}
}
