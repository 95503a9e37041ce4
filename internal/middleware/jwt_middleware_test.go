package middleware

import (
	"net/http/httptest"
	"testing"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticValidator map[string]models.Actor

func (v staticValidator) ValidateToken(token string) (models.Actor, error) {
	actor, ok := v[token]
	if !ok {
		return models.Actor{}, apperrors.Unauthenticated("invalid token")
	}
	return actor, nil
}

func newTestApp() *fiber.App {
	tokens := staticValidator{
		"admin-token": {Email: "admin@test.com", Name: "Admin", Role: models.RoleAdmin},
		"buyer-token": {Email: "buyer@test.com", Name: "Buyer", Role: models.RoleBuyer},
	}
	app := fiber.New()
	app.Get("/me", AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.JSON(Actor(c))
	})
	app.Get("/admin", AuthRequired(tokens), RequireRoles(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp()
	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic admin-token", fiber.StatusUnauthorized},
		{"unknown token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "Bearer buyer-token", fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer buyer-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer admin-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
