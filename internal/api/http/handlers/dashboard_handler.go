package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/config"
	"github.com/spec-kit/sip-gateway/internal/observability"
	"github.com/spec-kit/sip-gateway/internal/service"
)

// DashboardHandler exposes composite dashboard reads.
type DashboardHandler struct {
	dashboard *service.DashboardService
	metrics   *observability.Metrics
	cfg       config.Config
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService, metrics *observability.Metrics, cfg config.Config) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, metrics: metrics, cfg: cfg}
}

// Overview handles GET /api/dashboard/overview. Degraded upstream legs
// come back as documented defaults, never as an error.
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.dashboard.Overview(c.UserContext())})
}

// RealtimeStats handles GET /api/dashboard/realtime.
func (h *DashboardHandler) RealtimeStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.dashboard.RealtimeStats(c.UserContext())})
}

// UserData handles GET /api/dashboard/user-data.
func (h *DashboardHandler) UserData(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return c.JSON(fiber.Map{"data": h.dashboard.UserData(c.UserContext(), identity)})
}

// Stats handles GET /api/dashboard/stats with gateway-local counters.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// Config handles GET /api/dashboard/config, exposing client-relevant
// settings only.
func (h *DashboardHandler) Config(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"ratePerMinute":   h.cfg.Billing.RatePerMinute,
			"tokenTtlHours":   h.cfg.Auth.TokenTTLHours,
			"rateLimitMax":    h.cfg.RateLimit.Max,
			"rateLimitWindow": h.cfg.RateLimit.WindowSeconds,
		},
	})
}
