package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	"github.com/spec-kit/sip-gateway/internal/config"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	upstream *aeims.Client
	cfg      config.Config
	started  time.Time
}

// NewHealthHandler constructs handler.
func NewHealthHandler(upstream *aeims.Client, cfg config.Config) *HealthHandler {
	return &HealthHandler{upstream: upstream, cfg: cfg, started: time.Now()}
}

// Live handles GET /health. It reports the gateway process only.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
		"uptime":  time.Since(h.started).Seconds(),
	})
}

// Ready handles GET /health/ready. The gateway is ready only when the
// telephony platform answers its health check.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	health, err := h.upstream.HealthCheck(c.UserContext())
	if err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"upstream": "unreachable",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"upstream": health.Status,
	})
}
