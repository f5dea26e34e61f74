package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	"github.com/spec-kit/sip-gateway/internal/api/dto"
	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/service"
)

// SystemHandler exposes switch status, channel, command, call file and
// telemetry endpoints backed by the platform facade.
type SystemHandler struct {
	upstream *aeims.Client
	calls    *service.CallService
}

// NewSystemHandler constructs handler.
func NewSystemHandler(upstream *aeims.Client, calls *service.CallService) *SystemHandler {
	return &SystemHandler{upstream: upstream, calls: calls}
}

// Status handles GET /api/sip/status.
func (h *SystemHandler) Status(c *fiber.Ctx) error {
	status, err := h.upstream.SwitchStatus(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": status})
}

// Channels handles GET /api/sip/channels.
func (h *SystemHandler) Channels(c *fiber.Ctx) error {
	channels, err := h.upstream.SwitchChannels(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": channels})
}

// ActiveCalls handles GET /api/sip/calls.
func (h *SystemHandler) ActiveCalls(c *fiber.Ctx) error {
	calls, err := h.upstream.ActiveCalls(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": calls})
}

// CallDetails handles GET /api/sip/call/:callId.
func (h *SystemHandler) CallDetails(c *fiber.Ctx) error {
	callID := c.Params("callId")
	if callID == "" {
		return fiber.NewError(http.StatusBadRequest, "call id required")
	}
	session, err := h.upstream.CallDetails(c.UserContext(), callID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": session})
}

// ExecuteCommand handles POST /api/sip/command.
func (h *SystemHandler) ExecuteCommand(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Command == "" {
		return fiber.NewError(http.StatusBadRequest, "command required")
	}

	result, err := h.calls.ExecuteCommand(c.UserContext(), identity, req.Command, req.Args)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// CallFileStatus handles GET /api/sip/callfile/:callFileId.
func (h *SystemHandler) CallFileStatus(c *fiber.Ctx) error {
	id := c.Params("callFileId")
	if id == "" {
		return fiber.NewError(http.StatusBadRequest, "call file id required")
	}
	file, err := h.upstream.CallFileStatus(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": file})
}

// CallFileStats handles GET /api/sip/callfiles/stats.
func (h *SystemHandler) CallFileStats(c *fiber.Ctx) error {
	stats, err := h.upstream.CallFileStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Analytics handles GET /api/sip/analytics?range=24h.
func (h *SystemHandler) Analytics(c *fiber.Ctx) error {
	analytics, err := h.upstream.CallAnalytics(c.UserContext(), c.Query("range"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": analytics})
}

// Telemetry handles GET /api/sip/telemetry.
func (h *SystemHandler) Telemetry(c *fiber.Ctx) error {
	telemetry, err := h.upstream.SystemTelemetry(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": telemetry})
}
