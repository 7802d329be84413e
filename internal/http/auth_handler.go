package http

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"beaconly/internal/admin"
)

// AuthHandler issues and revokes admin bearer tokens.
type AuthHandler struct {
	db         *gorm.DB
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewAuthHandler(db *gorm.DB, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{db: db, sessionTTL: sessionTTL, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	user, err := admin.Authenticate(h.db, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, admin.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
		}
		h.logger.Error("login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	session, err := admin.IssueSession(h.db, user.ID, h.sessionTTL)
	if err != nil {
		h.logger.Error("failed to issue session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{
		"token": session.Token,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// Logout revokes the bearer token when one is presented. It always succeeds:
// revoking an unknown or absent token is a no-op.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token := bearerToken(c); token != "" {
		if err := admin.RevokeToken(h.db, token); err != nil {
			h.logger.Warn("failed to revoke token", "error", err)
		}
	}
	return c.JSON(fiber.Map{"success": true})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
