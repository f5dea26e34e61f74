package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/observability"
	"github.com/spec-kit/sip-gateway/internal/relay"
	"github.com/spec-kit/sip-gateway/internal/service"
)

type recordConn struct {
	id   string
	sent []relay.Envelope
}

func (c *recordConn) ID() string { return c.id }
func (c *recordConn) Send(env relay.Envelope) error {
	c.sent = append(c.sent, env)
	return nil
}

func newWebhookApp(secret string) (*fiber.App, *recordConn) {
	registry := relay.NewRegistry()
	conn := &recordConn{id: "c1"}
	registry.Subscribe(conn, "user-1")

	eventRelay := relay.New(registry, nil, observability.NewMetrics(), zap.NewNop())
	svc := service.NewWebhookService(eventRelay, nil, zap.NewNop())
	handler := NewWebhooksHandler(svc, secret)

	app := fiber.New()
	app.Post("/api/webhooks/aeims-events", handler.Receive)
	return app, conn
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postEvent(t *testing.T, app *fiber.App, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/aeims-events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-AEIMS-Signature", signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestReceiveDispatchesToSubscriber(t *testing.T) {
	app, conn := newWebhookApp("")
	body := []byte(`{"type":"call.started","data":{"userId":"user-1","callId":"call-9"}}`)

	resp := postEvent(t, app, body, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, relay.ChannelCall, conn.sent[0].Channel)
	assert.Equal(t, "call-started", conn.sent[0].Type)
	assert.Equal(t, "call-9", conn.sent[0].Data["callId"])
}

func TestReceiveValidSignature(t *testing.T) {
	app, conn := newWebhookApp("hook-secret")
	body := []byte(`{"type":"system.health","data":{"status":"healthy"}}`)

	resp := postEvent(t, app, body, sign("hook-secret", body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, conn.sent, 1)
}

func TestReceiveInvalidSignature(t *testing.T) {
	app, conn := newWebhookApp("hook-secret")
	body := []byte(`{"type":"call.started","data":{}}`)

	resp := postEvent(t, app, body, sign("wrong-secret", body))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, conn.sent)
}

func TestReceiveMissingSignature(t *testing.T) {
	app, conn := newWebhookApp("hook-secret")
	body := []byte(`{"type":"call.started","data":{}}`)

	resp := postEvent(t, app, body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, conn.sent)
}

func TestReceiveMissingType(t *testing.T) {
	app, conn := newWebhookApp("")
	body := []byte(`{"data":{"userId":"user-1"}}`)

	resp := postEvent(t, app, body, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, conn.sent)
}

func TestReceiveMalformedBody(t *testing.T) {
	app, _ := newWebhookApp("")

	resp := postEvent(t, app, []byte(`{not json`), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
