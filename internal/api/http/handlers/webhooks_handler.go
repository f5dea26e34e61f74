package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/api/dto"
	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/relay"
	"github.com/spec-kit/sip-gateway/internal/service"
)

// WebhooksHandler receives platform events and manages webhook endpoint
// registrations.
type WebhooksHandler struct {
	webhooks *service.WebhookService
	secret   string
}

// NewWebhooksHandler constructs handler. When secret is non-empty every
// inbound event must carry a valid X-AEIMS-Signature header.
func NewWebhooksHandler(webhooks *service.WebhookService, secret string) *WebhooksHandler {
	return &WebhooksHandler{webhooks: webhooks, secret: secret}
}

// Receive handles POST /api/webhooks/aeims-events. The endpoint always
// acknowledges accepted events immediately; delivery to subscribers is
// the relay's concern.
func (h *WebhooksHandler) Receive(c *fiber.Ctx) error {
	body := c.Body()
	if h.secret != "" && !h.verifySignature(body, c.Get("X-AEIMS-Signature")) {
		return fiber.NewError(http.StatusUnauthorized, "invalid webhook signature")
	}

	var req dto.WebhookEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Type == "" {
		return fiber.NewError(http.StatusBadRequest, "event type required")
	}

	h.webhooks.Process(c.UserContext(), relay.InboundEvent{
		Type:       req.Type,
		Data:       req.Data,
		ReceivedAt: time.Now(),
	})
	return c.JSON(fiber.Map{"success": true})
}

// Register handles POST /api/webhooks/register.
func (h *WebhooksHandler) Register(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.WebhookRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.URL == "" || len(req.Events) == 0 {
		return fiber.NewError(http.StatusBadRequest, "url and events required")
	}

	reg, err := h.webhooks.Register(c.UserContext(), identity, req.URL, req.Events)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reg})
}

// List handles GET /api/webhooks.
func (h *WebhooksHandler) List(c *fiber.Ctx) error {
	regs, err := h.webhooks.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": regs})
}

// Test handles POST /api/webhooks/test.
func (h *WebhooksHandler) Test(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	evt := h.webhooks.Test(c.UserContext(), identity)
	return c.JSON(fiber.Map{"success": true, "event": evt.Type})
}

func (h *WebhooksHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
