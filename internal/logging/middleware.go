package logging

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context, if any
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// FiberMiddleware returns a Fiber middleware for request logging.
// Every request gets a uuid request ID unless the caller supplied one.
func FiberMiddleware(logger *Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Set("X-Request-ID", requestID)
		}
		c.SetUserContext(WithRequestID(c.UserContext(), requestID))

		err := c.Next()

		duration := time.Since(start)
		statusCode := c.Response().StatusCode()

		fields := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
			"status", statusCode,
			"duration", duration,
			"request_id", requestID,
		}

		if err != nil {
			fields = append(fields, "error", err)
			logger.Error("Request failed", fields...)
			return err
		}

		switch {
		case statusCode >= 500:
			logger.Error("Server error", fields...)
		case statusCode >= 400:
			logger.Warn("Client error", fields...)
		default:
			logger.Info("Request completed", fields...)
		}

		return nil
	}
}
