package realtime

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/domain"
	"github.com/spec-kit/sip-gateway/internal/relay"
	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

const wsIdentityKey = "ws_identity"

// ClientMessage is what a connected client sends over the socket.
type ClientMessage struct {
	Action string `json:"action"`
	UserID string `json:"userId,omitempty"`
}

// Handler upgrades authenticated connections and translates client
// subscribe/unsubscribe messages into registry operations.
type Handler struct {
	tokens     *auth.TokenManager
	registry   relay.Registry
	sendBuffer int
	logger     *zap.Logger
}

// NewHandler constructs the websocket handler.
func NewHandler(tokens *auth.TokenManager, registry relay.Registry, sendBuffer int, logger *zap.Logger) *Handler {
	return &Handler{tokens: tokens, registry: registry, sendBuffer: sendBuffer, logger: logger}
}

// Upgrade authenticates the handshake and gates the websocket upgrade.
// Browsers cannot set headers on websocket requests, so the token may
// arrive either as a bearer header or a "token" query parameter.
func (h *Handler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		bearer, err := auth.BearerToken(c)
		if err != nil {
			return apperrors.NewUnauthorized("token required for realtime channel")
		}
		tokenStr = bearer
	}

	identity, err := h.tokens.Validate(c.UserContext(), tokenStr)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(wsIdentityKey, identity)
	return c.Next()
}

// Serve returns the websocket handler running the per-connection loop.
func (h *Handler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		identity, ok := conn.Locals(wsIdentityKey).(*domain.Identity)
		if !ok {
			_ = conn.Close()
			return
		}

		client := NewClient(conn, h.sendBuffer, h.logger)
		go client.WritePump()

		// Broadcast events (system health, unknown types) target every
		// connection, not just subscribers, so the connection joins the
		// registry before any subscribe message arrives.
		h.registry.Register(client)

		h.logger.Info("realtime client connected",
			zap.String("connection_id", client.ID()),
			zap.String("subject_id", identity.SubjectID),
			zap.Int("total_connections", h.registry.Count()+1),
		)

		defer func() {
			h.registry.RemoveConnection(client.ID())
			client.Close()
			h.logger.Info("realtime client disconnected",
				zap.String("connection_id", client.ID()),
				zap.Int("total_connections", h.registry.Count()),
			)
		}()

		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					h.logger.Debug("unexpected websocket close", zap.Error(err))
				}
				return
			}

			switch msg.Action {
			case "subscribe":
				if msg.UserID == "" {
					continue
				}
				h.registry.Subscribe(client, msg.UserID)
				h.logger.Debug("subscribed to call events",
					zap.String("connection_id", client.ID()),
					zap.String("subject_id", msg.UserID),
				)
			case "unsubscribe":
				if msg.UserID == "" {
					continue
				}
				h.registry.Unsubscribe(client.ID(), msg.UserID)
			case "ping":
				_ = client.Send(relay.Envelope{
					Channel:   relay.ChannelSystem,
					Type:      "pong",
					Timestamp: time.Now(),
				})
			}
		}
	})
}
