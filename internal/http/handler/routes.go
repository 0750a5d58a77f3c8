package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"wopihost/internal/service"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes attaches the health checks and the WOPI routes (mounted at /wopi) to app.
func RegisterRoutes(app *fiber.App, store Pinger, svc service.WopiService, log *zap.Logger) {
	app.Get("/health", HealthCheck(store))
	app.Get("/healthz", LivenessCheck())

	wopi := app.Group("/wopi")
	wopi.Get("/files/:id", CheckFileInfo(svc, log))
	wopi.Get("/files/:id/contents", GetFile(svc, log))
	wopi.Post("/files/:id/contents", PutFile(svc, log))
}

// HealthCheck godoc
// @Summary Readiness check
// @Description Checks that the document storage is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {string} string
// @Router /health [get]
func HealthCheck(store Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Storage unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessCheck godoc
// @Summary Liveness check
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
