package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconly/internal/admin"
	"beaconly/internal/http/middleware"
	"beaconly/internal/testsupport"
)

func TestIdentify(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(t, db, "admin@example.com", "secret123")
	session, err := admin.IssueSession(db, user.ID, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(middleware.Identify(db, testsupport.GetLogger()))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if u, ok := c.Locals(middleware.UserLocalKey).(*admin.User); ok {
			return c.JSON(fiber.Map{"email": u.Email})
		}
		return c.JSON(fiber.Map{"email": nil})
	})

	request := func(authorization string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	t.Run("valid token identifies the user", func(t *testing.T) {
		resp := request("Bearer " + session.Token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "admin@example.com", body["email"])
	})

	t.Run("no token still passes through", func(t *testing.T) {
		resp := request("")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("garbage token still passes through", func(t *testing.T) {
		resp := request("Bearer nonsense")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
