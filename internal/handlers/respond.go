package handlers

import (
	"errors"
	"fmt"

	"harvestiq/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// respondError writes err as {message, error} with the status its kind maps to.
func respondError(c *fiber.Ctx, message string, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return validationFailed(c, validationErrors)
	}
	status := apperrors.HTTPStatus(err)
	entry := log.WithError(err).WithFields(log.Fields{"method": c.Method(), "path": c.Path(), "status": status})
	if status >= fiber.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// validationFailed renders validator output as a field -> message map.
func validationFailed(c *fiber.Ctx, validationErrors validator.ValidationErrors) error {
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

func badBody(c *fiber.Ctx, err error) error {
	return respondError(c, "Invalid request body", apperrors.Malformed("%v", err))
}

// listingID reads the :id route parameter.
func listingID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.Malformed("listing id must be a positive integer, got %q", c.Params("id"))
	}
	return uint(id), nil
}
