package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/domain"
	"github.com/spec-kit/sip-gateway/internal/relay"
	"github.com/spec-kit/sip-gateway/internal/repository"
	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

// WebhookService handles inbound platform events and webhook endpoint
// bookkeeping.
type WebhookService struct {
	relay  *relay.Relay
	repo   repository.WebhookRepository
	logger *zap.Logger
}

// NewWebhookService builds the service. The repository may be nil when no
// database is configured; registrations are then rejected.
func NewWebhookService(r *relay.Relay, repo repository.WebhookRepository, logger *zap.Logger) *WebhookService {
	return &WebhookService{relay: r, repo: repo, logger: logger}
}

// Process dispatches one inbound platform event through the relay.
func (s *WebhookService) Process(ctx context.Context, evt relay.InboundEvent) {
	s.logger.Info("platform webhook event received", zap.String("event_type", evt.Type))
	s.relay.Dispatch(ctx, evt)
}

// Register records a webhook endpoint registration.
func (s *WebhookService) Register(ctx context.Context, identity *domain.Identity, url string, events []string) (*domain.WebhookRegistration, error) {
	if s.repo == nil {
		return nil, apperrors.NewDomainError("REGISTRY_DISABLED", "webhook registry not configured", 503, nil)
	}
	reg := &domain.WebhookRegistration{
		URL:          url,
		Events:       events,
		Status:       "active",
		RegisteredBy: identity.SubjectID,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, err
	}
	s.logger.Info("webhook registered", zap.String("url", url), zap.Strings("events", events))
	return reg, nil
}

// List returns all registered webhook endpoints.
func (s *WebhookService) List(ctx context.Context) ([]domain.WebhookRegistration, error) {
	if s.repo == nil {
		return []domain.WebhookRegistration{}, nil
	}
	return s.repo.List(ctx)
}

// Test pushes a synthetic event through the relay so operators can verify
// their realtime wiring end to end.
func (s *WebhookService) Test(ctx context.Context, identity *domain.Identity) relay.InboundEvent {
	evt := relay.InboundEvent{
		Type: "test.event",
		Data: map[string]any{
			"message": "test webhook event",
			"testBy":  identity.Email,
		},
		ReceivedAt: time.Now(),
	}
	s.relay.Dispatch(ctx, evt)
	return evt
}
