package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avdeevk/lms-api/utils/response"
)

// HandleCheckHealth handles GET /ping
func HandleCheckHealth(c *fiber.Ctx) error {
	return response.SuccessWithMessage(c, "pong", nil)
}
