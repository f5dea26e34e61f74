package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/observability"
	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

func newMiddlewareApp(metrics *observability.Metrics) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{
		Logger:  zap.NewNop(),
		Metrics: metrics,
	})
	return app
}

func get(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	return resp
}

func TestErrorRenderedAsEnvelope(t *testing.T) {
	app := newMiddlewareApp(observability.NewMetrics())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("call", nil)
	})

	resp := get(t, app, "/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "NOT_FOUND", payload.Error.Code)
}

func TestRequestMetricsSeeRenderedStatus(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newMiddlewareApp(metrics)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("call", nil)
	})

	resp := get(t, app, "/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	snapshot := metrics.Snapshot()
	assert.EqualValues(t, 1, snapshot["request|/missing|GET|404"])
	assert.Zero(t, snapshot["request|/missing|GET|200"])
	assert.EqualValues(t, 1, snapshot["error|/missing|GET|NOT_FOUND"])
}

func TestRequestMetricsSeePanicStatus(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newMiddlewareApp(metrics)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("handler exploded")
	})

	resp := get(t, app, "/boom")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.EqualValues(t, 1, metrics.Snapshot()["request|/boom|GET|500"])
}

func TestFiberErrorFoldedIntoTaxonomy(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newMiddlewareApp(metrics)
	app.Get("/bad", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "callId is required")
	})

	resp := get(t, app, "/bad")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.EqualValues(t, 1, metrics.Snapshot()["error|/bad|GET|VALIDATION_FAILED"])
}
