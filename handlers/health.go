package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/utils/response"
)

// HealthChecker is the part of database.Storage the probe needs.
type HealthChecker interface {
	HealthCheck() error
}

type HealthHandler struct {
	store HealthChecker
}

func NewHealthHandler(store HealthChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

// CheckHealth reports whether the database answers a ping.
func (h *HealthHandler) CheckHealth(c *fiber.Ctx) error {
	if err := h.store.HealthCheck(); err != nil {
		slog.Warn("health check failed", "error", err)
		return response.ServiceUnavailable(c, "Database is unreachable")
	}
	return response.Success(c, fiber.Map{"status": "ok", "database": "ok"})
}
