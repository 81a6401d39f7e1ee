package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"dataplatform/internal/apperror"
)

// statusOf returns the status the error handler will write for err.
// Middleware runs before the error handler, so the response status alone is
// not final when a handler returned an error.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperror.CodeOf(err).HTTPStatus()
}
