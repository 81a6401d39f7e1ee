package handler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"dataplatform/internal/apperror"
	"dataplatform/internal/logging"
)

// ErrorHandler returns a Fiber global error handler that turns any error
// returned by a handler into a Result.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logger := logging.FromContext(c.UserContext()).With(
			"method", c.Method(),
			"path", c.Path(),
		)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusRequestEntityTooLarge:
				return writeCode(c, apperror.OverSize)
			case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
				return writeCode(c, apperror.ParamInvalid)
			}
			return writeResult(c, fe.Code, fe.Code, strings.ToLower(utils.StatusMessage(fe.Code)))
		}

		code := apperror.CodeOf(err)
		level := slog.LevelInfo
		if code == apperror.ServerError {
			level = slog.LevelError
		}
		logger.Log(c.UserContext(), level, "request failed",
			"code", code.Value,
			"error", err.Error(),
		)
		return writeCode(c, code)
	}
}
