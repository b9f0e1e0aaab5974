package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tajious/rollcall/internal/models"
)

// ErrorHandler renders errors returned from handlers, including fiber's own
// 404 and 405, as {"message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(models.MessageResponse{Message: message})
}
