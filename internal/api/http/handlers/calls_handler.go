package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	"github.com/spec-kit/sip-gateway/internal/api/dto"
	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/service"
)

// CallsHandler exposes call command endpoints.
type CallsHandler struct {
	calls *service.CallService
}

// NewCallsHandler constructs handler.
func NewCallsHandler(calls *service.CallService) *CallsHandler {
	return &CallsHandler{calls: calls}
}

// Initiate handles POST /api/sip/call.
func (h *CallsHandler) Initiate(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.InitiateCallRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.From == "" || req.To == "" {
		return fiber.NewError(http.StatusBadRequest, "from and to required")
	}

	session, err := h.calls.Initiate(c.UserContext(), identity, req.From, req.To)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": session})
}

// Hangup handles DELETE /api/sip/call/:callId.
func (h *CallsHandler) Hangup(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	callID := c.Params("callId")
	if callID == "" {
		return fiber.NewError(http.StatusBadRequest, "call id required")
	}

	session, err := h.calls.Hangup(c.UserContext(), identity, callID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": session})
}

// Transfer handles POST /api/sip/call/:callId/transfer.
func (h *CallsHandler) Transfer(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	callID := c.Params("callId")
	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Destination == "" {
		return fiber.NewError(http.StatusBadRequest, "destination required")
	}

	session, err := h.calls.Transfer(c.UserContext(), identity, callID, req.Destination)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": session})
}

// Mute handles POST /api/sip/call/:callId/mute.
func (h *CallsHandler) Mute(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.MuteRequest
	// Body is optional: omitting the participant mutes the whole call.
	_ = c.BodyParser(&req)

	session, err := h.calls.Mute(c.UserContext(), identity, c.Params("callId"), req.Participant)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": session})
}

// Unmute handles POST /api/sip/call/:callId/unmute.
func (h *CallsHandler) Unmute(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.MuteRequest
	_ = c.BodyParser(&req)

	session, err := h.calls.Unmute(c.UserContext(), identity, c.Params("callId"), req.Participant)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": session})
}

// CreateCallFile handles POST /api/sip/callfile.
func (h *CallsHandler) CreateCallFile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.CallFileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Channel == "" || req.Extension == "" {
		return fiber.NewError(http.StatusBadRequest, "channel and extension required")
	}

	file, err := h.calls.CreateCallFile(c.UserContext(), identity, aeims.CallFileRequest{
		Channel:   req.Channel,
		Context:   req.Context,
		Extension: req.Extension,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": file})
}
