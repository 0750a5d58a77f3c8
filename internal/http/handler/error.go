package handler

import (
	"github.com/gofiber/fiber/v2"

	"wopihost/internal/http/middleware"
)

// ServerErrorHeader carries the machine-readable error code next to the short text body.
const ServerErrorHeader = "X-WOPI-ServerError"

// writeError writes a short plain-text error without leaking internal details.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "NOT_FOUND", "NO_CONTENT", "INTERNAL_ERROR")
// - message: human-readable safe message
func writeError(c *fiber.Ctx, status int, code, message string) error {
	c.Set(ServerErrorHeader, code)
	if rid := middleware.GetRequestID(c); rid != "" {
		c.Set(middleware.RequestIDHeader, rid)
	}
	return c.Status(status).SendString(message)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "Bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "Not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "Method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "TOO_LARGE", "File too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "Internal server error")
		}
	}
}
