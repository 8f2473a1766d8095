package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/models"
)

// Error codes returned in the error envelope
const (
	CodeError          = "ERROR"
	CodeUnknownSignal  = "UNKNOWN_SIGNAL"
	CodeInvalidSample  = "INVALID_SAMPLE"
	CodeInvalidRequest = "INVALID_REQUEST"
)

// ErrorHandler returns a custom error handler middleware.
// Domain errors from the baseline package map to 404/400 before
// falling back to fiber's own status codes.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := CodeError
		message := "Internal Server Error"

		switch {
		case errors.Is(err, baseline.ErrUnknownSignal):
			code = fiber.StatusNotFound
			errCode = CodeUnknownSignal
			message = err.Error()
		case errors.Is(err, baseline.ErrNonFinite):
			code = fiber.StatusBadRequest
			errCode = CodeInvalidSample
			message = err.Error()
		default:
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
		}

		logger.Error("Request error",
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err,
		)

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    errCode,
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}
