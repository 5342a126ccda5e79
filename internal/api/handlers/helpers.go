package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/apperr"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// respondError maps the error taxonomy onto HTTP statuses. Provider
// diagnostics pass through verbatim to aid support triage.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = fiber.StatusBadRequest
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindPrecondition:
		status = fiber.StatusPreconditionFailed
	case apperr.KindProvider, apperr.KindProviderTimeout:
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
