package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	"github.com/spec-kit/sip-gateway/internal/domain"
)

// DashboardUpstream is the slice of the gateway facade used for composite
// reads.
type DashboardUpstream interface {
	ActiveCalls(ctx context.Context) (*aeims.ActiveCalls, error)
	HealthCheck(ctx context.Context) (*aeims.HealthStatus, error)
	CallFileStats(ctx context.Context) (*aeims.CallFileStats, error)
	CallAnalytics(ctx context.Context, timeRange string) (*aeims.CallAnalytics, error)
	SwitchChannels(ctx context.Context) (*aeims.Channels, error)
	SystemTelemetry(ctx context.Context) (*aeims.Telemetry, error)
	UserDetails(ctx context.Context, userID string) (*aeims.UserDetails, error)
	BillingInfo(ctx context.Context, userID string) (*aeims.BillingInfo, error)
}

// DashboardService composes several platform reads into one response.
// Each leg degrades independently: a failed read is logged and replaced
// with its documented default, so one unavailable upstream view never
// fails the whole composite.
type DashboardService struct {
	upstream DashboardUpstream
	logger   *zap.Logger
}

// NewDashboardService builds the service.
func NewDashboardService(upstream DashboardUpstream, logger *zap.Logger) *DashboardService {
	return &DashboardService{upstream: upstream, logger: logger}
}

// Overview aggregates active calls, platform health, call file stats and
// 24h analytics.
type Overview struct {
	ActiveCalls  aeims.ActiveCalls   `json:"activeCalls"`
	SystemHealth HealthSummary       `json:"systemHealth"`
	CallFiles    aeims.CallFileStats `json:"callFiles"`
	Analytics    AnalyticsSummary    `json:"analytics"`
	Timestamp    time.Time           `json:"timestamp"`
}

// HealthSummary is the dashboard view of platform health. Status is
// "unknown" when the health read failed.
type HealthSummary struct {
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime"`
	LastCheck     time.Time `json:"lastCheck"`
}

// AnalyticsSummary wraps 24h call analytics.
type AnalyticsSummary struct {
	Last24h aeims.CallAnalytics `json:"last24h"`
}

// Overview fetches the four dashboard legs concurrently. Defaults on
// failure: empty call list, "unknown" health, zeroed stats and analytics.
func (s *DashboardService) Overview(ctx context.Context) *Overview {
	out := &Overview{
		ActiveCalls:  aeims.ActiveCalls{Calls: []aeims.CallSession{}},
		SystemHealth: HealthSummary{Status: "unknown", LastCheck: time.Now()},
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		calls, err := s.upstream.ActiveCalls(ctx)
		if err != nil {
			s.degraded("active calls", err)
			return
		}
		out.ActiveCalls = *calls
	}()
	go func() {
		defer wg.Done()
		health, err := s.upstream.HealthCheck(ctx)
		if err != nil {
			s.degraded("health", err)
			return
		}
		out.SystemHealth.Status = health.Status
		out.SystemHealth.UptimeSeconds = health.UptimeSeconds
	}()
	go func() {
		defer wg.Done()
		stats, err := s.upstream.CallFileStats(ctx)
		if err != nil {
			s.degraded("call file stats", err)
			return
		}
		out.CallFiles = *stats
	}()
	go func() {
		defer wg.Done()
		analytics, err := s.upstream.CallAnalytics(ctx, "24h")
		if err != nil {
			s.degraded("call analytics", err)
			return
		}
		out.Analytics.Last24h = *analytics
	}()

	wg.Wait()
	out.Timestamp = time.Now()
	return out
}

// RealtimeStats summarizes switch channels and platform telemetry.
type RealtimeStats struct {
	Channels  ChannelSummary  `json:"channels"`
	System    aeims.Telemetry `json:"system"`
	Timestamp time.Time       `json:"timestamp"`
}

// ChannelSummary breaks active channels down by direction.
type ChannelSummary struct {
	Active   int `json:"active"`
	Inbound  int `json:"inbound"`
	Outbound int `json:"outbound"`
}

// RealtimeStats fetches channels and telemetry concurrently, defaulting
// to zero counts on failure.
func (s *DashboardService) RealtimeStats(ctx context.Context) *RealtimeStats {
	out := &RealtimeStats{}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		channels, err := s.upstream.SwitchChannels(ctx)
		if err != nil {
			s.degraded("switch channels", err)
			return
		}
		out.Channels.Active = len(channels.Channels)
		for _, ch := range channels.Channels {
			switch ch.Direction {
			case "inbound":
				out.Channels.Inbound++
			case "outbound":
				out.Channels.Outbound++
			}
		}
	}()
	go func() {
		defer wg.Done()
		telemetry, err := s.upstream.SystemTelemetry(ctx)
		if err != nil {
			s.degraded("telemetry", err)
			return
		}
		out.System = *telemetry
	}()

	wg.Wait()
	out.Timestamp = time.Now()
	return out
}

// UserData combines the caller's platform account view with its billing
// summary. Defaults: identity-derived account stub, zero balance.
type UserData struct {
	User      UserSummary       `json:"user"`
	Billing   aeims.BillingInfo `json:"billing"`
	Timestamp time.Time         `json:"timestamp"`
}

// UserSummary echoes the caller identity enriched with platform details.
type UserSummary struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	Role         domain.Role       `json:"role"`
	Capabilities []string          `json:"permissions"`
	Details      aeims.UserDetails `json:"details"`
}

// UserData fetches account details and billing info concurrently.
func (s *DashboardService) UserData(ctx context.Context, identity *domain.Identity) *UserData {
	caps := make([]string, len(identity.Capabilities))
	for i, c := range identity.Capabilities {
		caps[i] = string(c)
	}

	out := &UserData{
		User: UserSummary{
			ID:           identity.SubjectID,
			Email:        identity.Email,
			Role:         identity.Role,
			Capabilities: caps,
			Details:      aeims.UserDetails{ID: identity.SubjectID, Email: identity.Email},
		},
		Billing: aeims.BillingInfo{Usage: []aeims.UsageEntry{}},
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		details, err := s.upstream.UserDetails(ctx, identity.SubjectID)
		if err != nil {
			s.degraded("user details", err)
			return
		}
		out.User.Details = *details
	}()
	go func() {
		defer wg.Done()
		billing, err := s.upstream.BillingInfo(ctx, identity.SubjectID)
		if err != nil {
			s.degraded("billing info", err)
			return
		}
		out.Billing = *billing
	}()

	wg.Wait()
	out.Timestamp = time.Now()
	return out
}

func (s *DashboardService) degraded(leg string, err error) {
	s.logger.Warn("dashboard leg degraded to default", zap.String("leg", leg), zap.Error(err))
}
