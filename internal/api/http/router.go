package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/spec-kit/sip-gateway/internal/api/http/handlers"
	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/config"
	"github.com/spec-kit/sip-gateway/internal/domain"
	"github.com/spec-kit/sip-gateway/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Calls          *handlers.CallsHandler
	System         *handlers.SystemHandler
	Conference     *handlers.ConferenceHandler
	Webhooks       *handlers.WebhooksHandler
	Dashboard      *handlers.DashboardHandler
	Admin          *handlers.AdminHandler
	Realtime       *realtime.Handler
	AuthMiddleware *auth.Middleware
	RateLimit      config.RateLimitConfig
}

// RegisterRoutes wires HTTP routes. Capability gates follow the role
// model: reads need sip:basic, call commands need sip:operator, webhook
// management needs sip:admin.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	if cfg.RateLimit.Max > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.Max,
			Expiration: cfg.RateLimit.Window(),
		}))
	}

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/sso-login", cfg.Auth.SSOLogin)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/verify", cfg.AuthMiddleware.Handle, cfg.Auth.Verify)

	// Platform events arrive unauthenticated; the HMAC signature check in
	// the handler is the gate when a webhook secret is configured.
	api.Post("/webhooks/aeims-events", cfg.Webhooks.Receive)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireCapability(domain.CapabilityAdmin))
	admin.Post("/operators", cfg.Admin.CreateOperator)
	admin.Get("/operators/:operatorId", cfg.Admin.OperatorDetails)
	admin.Put("/operators/:operatorId", cfg.Admin.UpdateOperator)
	admin.Get("/usage/:subjectId", cfg.Admin.UsageHistory)

	webhooks := api.Group("/webhooks", cfg.AuthMiddleware.Handle, auth.RequireCapability(domain.CapabilityAdmin))
	webhooks.Get("/", cfg.Webhooks.List)
	webhooks.Post("/register", cfg.Webhooks.Register)
	webhooks.Post("/test", cfg.Webhooks.Test)

	sip := api.Group("/sip", cfg.AuthMiddleware.Handle)

	reads := sip.Group("", auth.RequireCapability(domain.CapabilityBasic))
	reads.Get("/status", cfg.System.Status)
	reads.Get("/channels", cfg.System.Channels)
	reads.Get("/calls", cfg.System.ActiveCalls)
	reads.Get("/call/:callId", cfg.System.CallDetails)
	reads.Get("/callfile/:callFileId", cfg.System.CallFileStatus)
	reads.Get("/callfiles/stats", cfg.System.CallFileStats)
	reads.Get("/telemetry", cfg.System.Telemetry)
	reads.Get("/analytics", cfg.System.Analytics)

	commands := sip.Group("", auth.RequireCapability(domain.CapabilityOperator))
	commands.Post("/call", cfg.Calls.Initiate)
	commands.Delete("/call/:callId", cfg.Calls.Hangup)
	commands.Post("/call/:callId/transfer", cfg.Calls.Transfer)
	commands.Post("/call/:callId/mute", cfg.Calls.Mute)
	commands.Post("/call/:callId/unmute", cfg.Calls.Unmute)
	commands.Post("/callfile", cfg.Calls.CreateCallFile)
	commands.Post("/command", cfg.System.ExecuteCommand)

	conference := api.Group("/conference", cfg.AuthMiddleware.Handle, auth.RequireCapability(domain.CapabilityOperator))
	conference.Post("/", cfg.Conference.Create)
	conference.Get("/:conferenceId", cfg.Conference.Details)
	conference.Post("/:conferenceId/join", cfg.Conference.Join)
	conference.Post("/:conferenceId/leave", cfg.Conference.Leave)

	dashboard := api.Group("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireCapability(domain.CapabilityBasic))
	dashboard.Get("/overview", cfg.Dashboard.Overview)
	dashboard.Get("/realtime", cfg.Dashboard.RealtimeStats)
	dashboard.Get("/user-data", cfg.Dashboard.UserData)
	dashboard.Get("/stats", cfg.Dashboard.Stats)
	dashboard.Get("/config", cfg.Dashboard.Config)

	app.Use("/ws", cfg.Realtime.Upgrade)
	app.Get("/ws", cfg.Realtime.Serve())
}
