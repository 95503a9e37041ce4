package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"harvestiq/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, fiber.StatusOK},
		{apperrors.Validation("quantity must be positive"), fiber.StatusBadRequest},
		{apperrors.Malformed("cart line 2"), fiber.StatusBadRequest},
		{apperrors.Unauthenticated("invalid credentials"), fiber.StatusUnauthorized},
		{apperrors.Authorization("farmers only"), fiber.StatusForbidden},
		{apperrors.NotFound("listing 9"), fiber.StatusNotFound},
		{apperrors.InvalidState("listing 1 is Approved"), fiber.StatusConflict},
		{apperrors.InsufficientStock("listing 1"), fiber.StatusConflict},
		{apperrors.Conflict("email taken"), fiber.StatusConflict},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, apperrors.HTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("checkout line 1: %w", apperrors.InsufficientStock("listing 4 has 2kg"))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "listing 4 has 2kg")

	var merr *multierror.Error
	merr = multierror.Append(merr, apperrors.NotFound("listing 3"), err)
	assert.ErrorIs(t, merr.ErrorOrNil(), apperrors.ErrNotFound)
	assert.ErrorIs(t, merr.ErrorOrNil(), apperrors.ErrInsufficientStock)
}
