package relay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/observability"
)

// UsageSink receives billable usage extracted from completed call events.
type UsageSink interface {
	RecordCallUsage(ctx context.Context, subjectID string, durationSeconds int, endedAt time.Time) error
}

// Relay classifies platform webhook events and fans them out to
// subscribed connections. Delivery is at-most-once and best-effort: a
// disconnected or saturated subscriber misses events, and there is no
// replay queue.
type Relay struct {
	registry Registry
	usage    UsageSink
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New builds a relay. The usage sink may be nil, in which case completed
// calls produce no usage records.
func New(registry Registry, usage UsageSink, metrics *observability.Metrics, logger *zap.Logger) *Relay {
	return &Relay{registry: registry, usage: usage, logger: logger, metrics: metrics}
}

// Registry exposes the subscription registry for the transport adapter.
func (r *Relay) Registry() Registry {
	return r.registry
}

// Dispatch processes one inbound event: classify, resolve targets, push.
// It runs synchronously in the caller's goroutine, so events for one
// subject keep the order their webhook requests arrived in. Per-connection
// failures never fail the dispatch.
func (r *Relay) Dispatch(ctx context.Context, evt InboundEvent) {
	if evt.ReceivedAt.IsZero() {
		evt.ReceivedAt = time.Now()
	}

	channel, pushType := Classify(evt.Type)
	env := Envelope{
		Channel:   channel,
		Type:      pushType,
		Data:      evt.Data,
		Timestamp: evt.ReceivedAt,
	}

	if evt.Type == "call.ended" {
		r.recordUsage(ctx, evt)
	}

	targets := r.resolveTargets(channel, evt.SubjectID())
	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(env); err != nil {
			// The connection cannot accept more events; drop it rather
			// than stall delivery to the remaining subscribers.
			r.registry.RemoveConnection(conn.ID())
			r.metrics.RecordEventDropped()
			r.logger.Warn("dropped saturated connection",
				zap.String("connection_id", conn.ID()),
				zap.String("event_type", evt.Type),
			)
			continue
		}
		delivered++
	}

	r.metrics.RecordEventDispatched(channel)
	r.logger.Debug("event dispatched",
		zap.String("event_type", evt.Type),
		zap.String("channel", channel),
		zap.Int("delivered", delivered),
	)
}

// PushToSubject delivers an envelope to one subject's subscribers,
// bypassing classification. Used for gateway-originated notifications
// such as command acknowledgements.
func (r *Relay) PushToSubject(subjectID string, env Envelope) {
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now()
	}
	for _, conn := range r.registry.Subscribers(subjectID) {
		if err := conn.Send(env); err != nil {
			r.registry.RemoveConnection(conn.ID())
			r.metrics.RecordEventDropped()
			r.logger.Warn("dropped saturated connection",
				zap.String("connection_id", conn.ID()),
				zap.String("event_type", env.Type),
			)
		}
	}
	r.metrics.RecordEventDispatched(env.Channel)
}

// resolveTargets picks the delivery set. Subject events go to that
// subject's subscribers; system and unknown events broadcast to all
// connections, as do subject-class events that carry no subject key.
func (r *Relay) resolveTargets(channel, subjectID string) []Connection {
	switch channel {
	case ChannelSystem, ChannelUnknown:
		return r.registry.All()
	default:
		if subjectID == "" {
			return r.registry.All()
		}
		return r.registry.Subscribers(subjectID)
	}
}

// recordUsage hands completed-call usage to the billing sink without
// blocking dispatch. Billing failure is logged and never fails event
// delivery.
func (r *Relay) recordUsage(ctx context.Context, evt InboundEvent) {
	if r.usage == nil {
		return
	}
	subjectID := evt.SubjectID()
	duration := evt.DurationSeconds()
	if subjectID == "" || duration <= 0 {
		return
	}

	endedAt := evt.EndTime()
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		recordCtx, cancel := context.WithTimeout(bgCtx, 10*time.Second)
		defer cancel()
		if err := r.usage.RecordCallUsage(recordCtx, subjectID, duration, endedAt); err != nil {
			r.logger.Error("failed to record usage",
				zap.String("subject_id", subjectID),
				zap.Int("duration_seconds", duration),
				zap.Error(err),
			)
		}
	}()
}
