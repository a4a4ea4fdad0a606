// handlers/common.go
package handlers

import (
	"errors"

	"movie-club-system/services"

	"github.com/gofiber/fiber/v2"
)

// fail maps service errors to HTTP statuses. Handlers never inspect error
// text, only the sentinel chain.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrInsufficientFunds):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
