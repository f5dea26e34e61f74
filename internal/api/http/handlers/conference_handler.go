package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	"github.com/spec-kit/sip-gateway/internal/api/dto"
	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/service"
)

// ConferenceHandler exposes conference room endpoints.
type ConferenceHandler struct {
	calls    *service.CallService
	upstream *aeims.Client
}

// NewConferenceHandler constructs handler.
func NewConferenceHandler(calls *service.CallService, upstream *aeims.Client) *ConferenceHandler {
	return &ConferenceHandler{calls: calls, upstream: upstream}
}

// Create handles POST /api/conference.
func (h *ConferenceHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.ConferenceCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name required")
	}

	conf, err := h.calls.CreateConference(c.UserContext(), identity, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": conf})
}

// Details handles GET /api/conference/:conferenceId.
func (h *ConferenceHandler) Details(c *fiber.Ctx) error {
	id := c.Params("conferenceId")
	if id == "" {
		return fiber.NewError(http.StatusBadRequest, "conference id required")
	}
	conf, err := h.upstream.ConferenceDetails(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conf})
}

// Join handles POST /api/conference/:conferenceId/join.
func (h *ConferenceHandler) Join(c *fiber.Ctx) error {
	var req dto.ConferenceJoinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.ParticipantID == "" {
		return fiber.NewError(http.StatusBadRequest, "participant id required")
	}

	conf, err := h.calls.JoinConference(c.UserContext(), c.Params("conferenceId"), aeims.JoinRequest{
		ParticipantID: req.ParticipantID,
		Name:          req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conf})
}

// Leave handles POST /api/conference/:conferenceId/leave.
func (h *ConferenceHandler) Leave(c *fiber.Ctx) error {
	var req dto.ConferenceLeaveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.ParticipantID == "" {
		return fiber.NewError(http.StatusBadRequest, "participant id required")
	}

	conf, err := h.calls.LeaveConference(c.UserContext(), c.Params("conferenceId"), req.ParticipantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conf})
}
