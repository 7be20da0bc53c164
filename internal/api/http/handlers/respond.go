package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/namann16/support-tickets/internal/api/dto"
)

func respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(dto.Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}
