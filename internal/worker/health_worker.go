package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	"github.com/spec-kit/sip-gateway/internal/relay"
)

// HealthWorker polls the telephony platform and broadcasts its health to
// every realtime subscriber. Webhook-delivered system.health events take
// the same path; the poll only covers platforms that never push.
type HealthWorker struct {
	upstream *aeims.Client
	relay    *relay.Relay
	interval time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewHealthWorker builds the worker. A non-positive interval defaults to
// 30 seconds.
func NewHealthWorker(upstream *aeims.Client, r *relay.Relay, interval time.Duration, logger *zap.Logger) *HealthWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthWorker{
		upstream: upstream,
		relay:    r,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the poll loop.
func (w *HealthWorker) Start() {
	go w.run()
}

// Stop terminates the poll loop and waits for it to exit.
func (w *HealthWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *HealthWorker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *HealthWorker) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	health, err := w.upstream.HealthCheck(ctx)
	if err != nil {
		w.logger.Warn("platform health poll failed", zap.Error(err))
		w.relay.Dispatch(ctx, relay.InboundEvent{
			Type:       "system.health",
			Data:       map[string]any{"status": "unreachable"},
			ReceivedAt: time.Now(),
		})
		return
	}

	w.relay.Dispatch(ctx, relay.InboundEvent{
		Type: "system.health",
		Data: map[string]any{
			"status": health.Status,
			"uptime": health.UptimeSeconds,
		},
		ReceivedAt: time.Now(),
	})
}
