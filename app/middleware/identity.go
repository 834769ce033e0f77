// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/merchantops/support-console/app/dto"
	businessflow "github.com/merchantops/support-console/business_flow"
	"github.com/merchantops/support-console/models"
)

// Identity reads the trusted identity headers set by the gateway and stores
// the resolved actor in the request context. Requests without headers pass
// through as anonymous; authorization is enforced per-route.
func Identity() fiber.Handler {
	return func(c fiber.Ctx) error {
		actor := &businessflow.Actor{
			Role:       c.Get("X-User-Role"),
			Department: c.Get("X-User-Department"),
		}
		if raw := c.Get("X-User-ID"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil && id > 0 {
				uid := uint(id)
				actor.UserID = &uid
			}
		}
		c.Locals("actor", actor)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// RequireUser rejects requests that carry no authenticated user identity.
func RequireUser() fiber.Handler {
	return func(c fiber.Ctx) error {
		actor := ActorFromContext(c)
		if actor == nil || actor.UserID == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authentication is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_IDENTITY",
				},
			})
		}
		return c.Next()
	}
}

// RequireAdmin rejects requests whose actor does not hold the admin role.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		actor := ActorFromContext(c)
		if actor == nil || actor.UserID == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authentication is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_IDENTITY",
				},
			})
		}
		if actor.Role != string(models.UserRoleAdmin) {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Admin role is required for this operation",
				Error: dto.ErrorDetail{
					Code: "FORBIDDEN",
				},
			})
		}
		return c.Next()
	}
}

// ActorFromContext returns the actor stored by the Identity middleware.
func ActorFromContext(c fiber.Ctx) *businessflow.Actor {
	if actor, ok := c.Locals("actor").(*businessflow.Actor); ok {
		return actor
	}
	return nil
}
