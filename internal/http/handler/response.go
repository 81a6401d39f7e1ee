package handler

import (
	"github.com/gofiber/fiber/v2"

	"dataplatform/internal/apperror"
	"dataplatform/internal/http/middleware"
)

// Result is the body of every API response.
type Result struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func ok(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Result{
		Code:      apperror.Success.Value,
		Msg:       apperror.Success.Message,
		Data:      data,
		RequestID: middleware.RequestIDFrom(c),
	})
}

// writeResult writes a failure without leaking internal errors.
func writeResult(c *fiber.Ctx, status int, code int, msg string) error {
	return c.Status(status).JSON(Result{
		Code:      code,
		Msg:       msg,
		RequestID: middleware.RequestIDFrom(c),
	})
}

func writeCode(c *fiber.Ctx, code apperror.Code) error {
	return writeResult(c, code.HTTPStatus(), code.Value, code.Message)
}
