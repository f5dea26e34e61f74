package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	httptransport "github.com/spec-kit/sip-gateway/internal/api/http"
	"github.com/spec-kit/sip-gateway/internal/api/http/handlers"
	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/billing"
	"github.com/spec-kit/sip-gateway/internal/config"
	"github.com/spec-kit/sip-gateway/internal/observability"
	"github.com/spec-kit/sip-gateway/internal/persistence"
	"github.com/spec-kit/sip-gateway/internal/realtime"
	"github.com/spec-kit/sip-gateway/internal/relay"
	"github.com/spec-kit/sip-gateway/internal/repository"
	"github.com/spec-kit/sip-gateway/internal/service"
	"github.com/spec-kit/sip-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var revocations auth.RevocationStore
	if err := redis.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, using in-process revocation store", zap.Error(err))
		revocations = auth.NewMemoryRevocationStore()
	} else {
		revocations = persistence.NewRedisRevocationStore(redis)
	}

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), revocations)

	upstream := aeims.NewClient(cfg.Aeims.BaseURL, aeims.Options{
		Timeout:       cfg.Aeims.Timeout(),
		RetryAttempts: cfg.Aeims.RetryAttempts,
		RetryBase:     cfg.Aeims.RetryBaseDelay(),
		AuthToken:     cfg.Aeims.AuthToken,
		Reauth:        envReauth,
		Metrics:       metrics,
	}, logger)

	pool := pg.PoolHandle()
	operatorRepo := repository.NewOperatorRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)
	webhookRepo := repository.NewWebhookRepository(pool)

	recorder := billing.NewRecorder(upstream, usageRepo, cfg.Billing.RatePerMinute, logger)
	registry := relay.NewRegistry()
	eventRelay := relay.New(registry, recorder, metrics, logger)

	var sso service.SSOVerifier
	if cfg.Aeims.SSOAuthURL != "" {
		sso = service.NewHTTPSSOVerifier(cfg.Aeims.SSOAuthURL, cfg.Aeims.Timeout())
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		OperatorRepo: operatorRepo,
		TokenManager: tokens,
		SSO:          sso,
	})
	callService := service.NewCallService(upstream, eventRelay, logger)
	dashboardService := service.NewDashboardService(upstream, logger)
	webhookService := service.NewWebhookService(eventRelay, webhookRepo, logger)

	authMiddleware := auth.NewMiddleware(tokens)
	realtimeHandler := realtime.NewHandler(tokens, registry, cfg.Realtime.SendBuffer, logger)

	healthWorker := worker.NewHealthWorker(upstream, eventRelay, 0, logger)
	healthWorker.Start()
	defer healthWorker.Stop()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: !cfg.App.Development(),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		Development: cfg.App.Development(),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(upstream, *cfg),
		Auth:           handlers.NewAuthHandler(authService),
		Calls:          handlers.NewCallsHandler(callService),
		System:         handlers.NewSystemHandler(upstream, callService),
		Conference:     handlers.NewConferenceHandler(callService, upstream),
		Webhooks:       handlers.NewWebhooksHandler(webhookService, cfg.Aeims.WebhookSecret),
		Dashboard:      handlers.NewDashboardHandler(dashboardService, metrics, *cfg),
		Admin:          handlers.NewAdminHandler(authService, usageRepo),
		Realtime:       realtimeHandler,
		AuthMiddleware: authMiddleware,
		RateLimit:      cfg.RateLimit,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// envReauth re-reads the platform credential from the environment.
// Deployments rotate AEIMS_AUTH_TOKEN in place; a 401 from the platform
// picks the new value up without a restart.
func envReauth(ctx context.Context) (string, error) {
	token := os.Getenv("AEIMS_AUTH_TOKEN")
	if token == "" {
		return "", errors.New("AEIMS_AUTH_TOKEN not set")
	}
	return token, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
