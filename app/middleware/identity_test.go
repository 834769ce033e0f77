package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	businessflow "github.com/merchantops/support-console/business_flow"
	"github.com/merchantops/support-console/models"
)

func TestIdentity(t *testing.T) {
	var captured *businessflow.Actor
	app := fiber.New()
	app.Use(Identity())
	app.Get("/", func(c fiber.Ctx) error {
		captured = ActorFromContext(c)
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("ResolvesActorFromHeaders", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-User-ID", "7")
		req.Header.Set("X-User-Role", string(models.UserRoleAgent))
		req.Header.Set("X-User-Department", "Merchant Support")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		require.NotNil(t, captured)
		require.NotNil(t, captured.UserID)
		assert.Equal(t, uint(7), *captured.UserID)
		assert.Equal(t, string(models.UserRoleAgent), captured.Role)
		assert.Equal(t, "Merchant Support", captured.Department)
	})

	t.Run("MissingHeadersYieldAnonymousActor", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		require.NotNil(t, captured)
		assert.Nil(t, captured.UserID)
	})

	t.Run("MalformedUserIDIgnored", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-User-ID", "not-a-number")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.NotNil(t, captured)
		assert.Nil(t, captured.UserID)
	})
}

func TestRequireAdmin(t *testing.T) {
	app := fiber.New()
	app.Use(Identity())
	app.Post("/admin", RequireAdmin(), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("NoIdentityUnauthorized", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/admin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("AgentForbidden", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/admin", nil)
		req.Header.Set("X-User-ID", "3")
		req.Header.Set("X-User-Role", string(models.UserRoleAgent))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("AdminAllowed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/admin", nil)
		req.Header.Set("X-User-ID", "1")
		req.Header.Set("X-User-Role", string(models.UserRoleAdmin))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
