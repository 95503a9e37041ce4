package middleware

import (
	"strings"

	"harvestiq/internal/models"
	"harvestiq/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const actorKey = "actor"

// TokenValidator turns a bearer token into the actor it was issued to.
type TokenValidator interface {
	ValidateToken(token string) (models.Actor, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		actor, err := tokens.ValidateToken(parts[1])
		if err != nil {
			log.WithError(err).WithField("path", c.Path()).Debug("JWT validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// Actor returns the identity AuthRequired stored on the request, or the
// anonymous actor.
func Actor(c *fiber.Ctx) models.Actor {
	actor, _ := c.Locals(actorKey).(models.Actor)
	return actor
}

// RequireRoles rejects requests whose actor holds none of roles.
func RequireRoles(roles ...models.Role) fiber.Handler {
	req := services.Roles(roles...)
	return func(c *fiber.Ctx) error {
		if err := services.Authorize(Actor(c), req); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied",
				"error":   err.Error(),
			})
		}
		return c.Next()
	}
}
