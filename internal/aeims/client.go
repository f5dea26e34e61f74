package aeims

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/observability"
	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

const userAgent = "SIP-Gateway/1.0"

// ReauthFunc obtains a fresh upstream credential after the platform
// rejects the current one.
type ReauthFunc func(ctx context.Context) (string, error)

// statusError is a non-2xx upstream response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.status, e.body)
}

// authRejectedError is a 401 from upstream: the cached credential expired.
type authRejectedError struct {
	inner *statusError
}

func (e *authRejectedError) Error() string { return e.inner.Error() }
func (e *authRejectedError) Unwrap() error { return e.inner }

// Client is a typed facade over the AEIMS HTTP API. It is stateless per
// call except for the cached auth credential, whose refresh is mutually
// exclusive across callers.
type Client struct {
	baseURL     string
	httpc       *http.Client
	logger      *zap.Logger
	metrics     *observability.Metrics
	readPolicy  Policy
	writePolicy Policy
	reauth      ReauthFunc

	mu          sync.Mutex
	token       string
	tokenGen    uint64
	refreshDone chan struct{}
}

// Options configures the client.
type Options struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryBase     time.Duration
	AuthToken     string
	Reauth        ReauthFunc
	Metrics       *observability.Metrics
}

// NewClient builds a facade for the given base URL.
func NewClient(baseURL string, opts Options, logger *zap.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := opts.RetryBase
	if base <= 0 {
		base = time.Second
	}
	return &Client{
		baseURL:     baseURL,
		httpc:       &http.Client{Timeout: timeout},
		logger:      logger,
		metrics:     opts.Metrics,
		readPolicy:  DefaultPolicy(opts.RetryAttempts, base),
		writePolicy: SinglePolicy(),
		reauth:      opts.Reauth,
		token:       opts.AuthToken,
	}
}

// SetAuthToken replaces the cached upstream credential.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.tokenGen++
	c.mu.Unlock()
}

// HealthCheck verifies upstream availability.
func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SwitchStatus returns the telephony switch state.
func (c *Client) SwitchStatus(ctx context.Context) (*SwitchStatus, error) {
	var out SwitchStatus
	if err := c.get(ctx, "/api/freeswitch/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SwitchChannels lists active switch channels.
func (c *Client) SwitchChannels(ctx context.Context) (*Channels, error) {
	var out Channels
	if err := c.get(ctx, "/api/freeswitch/channels", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteCommand runs a raw switch command. Executed at most once.
func (c *Client) ExecuteCommand(ctx context.Context, req CommandRequest) (*CommandResult, error) {
	if req.Command == "" {
		return nil, apperrors.NewValidationError("command is required", nil)
	}
	var out CommandResult
	if err := c.post(ctx, "/api/freeswitch/command", req, &out, c.writePolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitiateCall places an outbound call. Executed at most once: a retry
// could place a duplicate call.
func (c *Client) InitiateCall(ctx context.Context, req CallRequest) (*CallSession, error) {
	if req.From == "" || req.To == "" {
		return nil, apperrors.NewValidationError("from and to are required", nil)
	}
	var out CallSession
	if err := c.post(ctx, "/api/calls/initiate", req, &out, c.writePolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// HangupCall terminates a call.
func (c *Client) HangupCall(ctx context.Context, callID string) (*CallSession, error) {
	if callID == "" {
		return nil, apperrors.NewValidationError("callId is required", nil)
	}
	var out CallSession
	if err := c.post(ctx, "/api/calls/"+url.PathEscape(callID)+"/hangup", nil, &out, c.readPolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// TransferCall redirects a call to a new destination.
func (c *Client) TransferCall(ctx context.Context, callID, destination string) (*CallSession, error) {
	if callID == "" || destination == "" {
		return nil, apperrors.NewValidationError("callId and destination are required", nil)
	}
	body := map[string]string{"destination": destination}
	var out CallSession
	if err := c.post(ctx, "/api/calls/"+url.PathEscape(callID)+"/transfer", body, &out, c.readPolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// MuteCall mutes a call or a single participant.
func (c *Client) MuteCall(ctx context.Context, callID, participant string) (*CallSession, error) {
	return c.muteOp(ctx, callID, participant, "mute")
}

// UnmuteCall unmutes a call or a single participant.
func (c *Client) UnmuteCall(ctx context.Context, callID, participant string) (*CallSession, error) {
	return c.muteOp(ctx, callID, participant, "unmute")
}

func (c *Client) muteOp(ctx context.Context, callID, participant, op string) (*CallSession, error) {
	if callID == "" {
		return nil, apperrors.NewValidationError("callId is required", nil)
	}
	body := map[string]string{}
	if participant != "" {
		body["participant"] = participant
	}
	var out CallSession
	if err := c.post(ctx, "/api/calls/"+url.PathEscape(callID)+"/"+op, body, &out, c.readPolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallDetails fetches one call.
func (c *Client) CallDetails(ctx context.Context, callID string) (*CallSession, error) {
	if callID == "" {
		return nil, apperrors.NewValidationError("callId is required", nil)
	}
	var out CallSession
	if err := c.get(ctx, "/api/calls/"+url.PathEscape(callID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActiveCalls lists calls in progress.
func (c *Client) ActiveCalls(ctx context.Context) (*ActiveCalls, error) {
	var out ActiveCalls
	if err := c.get(ctx, "/api/calls/active", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCallFile queues an automated call. Executed at most once.
func (c *Client) CreateCallFile(ctx context.Context, req CallFileRequest) (*CallFile, error) {
	if req.Channel == "" || req.Context == "" || req.Extension == "" {
		return nil, apperrors.NewValidationError("channel, context and extension are required", nil)
	}
	var out CallFile
	if err := c.post(ctx, "/api/callfiles/create", req, &out, c.writePolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallFileStatus fetches one call file.
func (c *Client) CallFileStatus(ctx context.Context, callFileID string) (*CallFile, error) {
	if callFileID == "" {
		return nil, apperrors.NewValidationError("callFileId is required", nil)
	}
	var out CallFile
	if err := c.get(ctx, "/api/callfiles/"+url.PathEscape(callFileID)+"/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallFileStats summarizes call file processing.
func (c *Client) CallFileStats(ctx context.Context) (*CallFileStats, error) {
	var out CallFileStats
	if err := c.get(ctx, "/api/callfiles/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConference creates a conference room. Executed at most once.
func (c *Client) CreateConference(ctx context.Context, req ConferenceRequest) (*Conference, error) {
	if req.Name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	var out Conference
	if err := c.post(ctx, "/api/conference/create", req, &out, c.writePolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinConference adds a participant.
func (c *Client) JoinConference(ctx context.Context, conferenceID string, req JoinRequest) (*Conference, error) {
	if conferenceID == "" || req.ParticipantID == "" {
		return nil, apperrors.NewValidationError("conferenceId and participantId are required", nil)
	}
	var out Conference
	if err := c.post(ctx, "/api/conference/"+url.PathEscape(conferenceID)+"/join", req, &out, c.readPolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeaveConference removes a participant.
func (c *Client) LeaveConference(ctx context.Context, conferenceID, participantID string) (*Conference, error) {
	if conferenceID == "" || participantID == "" {
		return nil, apperrors.NewValidationError("conferenceId and participantId are required", nil)
	}
	body := map[string]string{"participantId": participantID}
	var out Conference
	if err := c.post(ctx, "/api/conference/"+url.PathEscape(conferenceID)+"/leave", body, &out, c.readPolicy); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConferenceDetails fetches one conference.
func (c *Client) ConferenceDetails(ctx context.Context, conferenceID string) (*Conference, error) {
	if conferenceID == "" {
		return nil, apperrors.NewValidationError("conferenceId is required", nil)
	}
	var out Conference
	if err := c.get(ctx, "/api/conference/"+url.PathEscape(conferenceID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserDetails fetches a platform account.
func (c *Client) UserDetails(ctx context.Context, userID string) (*UserDetails, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	var out UserDetails
	if err := c.get(ctx, "/api/users/"+url.PathEscape(userID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BillingInfo fetches an account's billing summary.
func (c *Client) BillingInfo(ctx context.Context, userID string) (*BillingInfo, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	var out BillingInfo
	if err := c.get(ctx, "/api/billing/user/"+url.PathEscape(userID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordUsage forwards a billable usage event to the platform.
func (c *Client) RecordUsage(ctx context.Context, rec UsageRecord) error {
	if rec.UserID == "" {
		return apperrors.NewValidationError("userId is required", nil)
	}
	return c.post(ctx, "/api/billing/usage", rec, nil, c.readPolicy)
}

// SystemTelemetry fetches platform resource metrics.
func (c *Client) SystemTelemetry(ctx context.Context) (*Telemetry, error) {
	var out Telemetry
	if err := c.get(ctx, "/api/telemetry", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallAnalytics summarizes call volume for a time range such as "24h".
func (c *Client) CallAnalytics(ctx context.Context, timeRange string) (*CallAnalytics, error) {
	if timeRange == "" {
		timeRange = "24h"
	}
	var out CallAnalytics
	if err := c.get(ctx, "/api/analytics/calls?range="+url.QueryEscape(timeRange), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, c.readPolicy)
}

func (c *Client) post(ctx context.Context, path string, body, out any, policy Policy) error {
	return c.do(ctx, http.MethodPost, path, body, out, policy)
}

// do runs one logical operation under the given retry policy and
// normalizes the outcome into the service error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body, out any, policy Policy) error {
	handledAuth := false

	op := func() error {
		token, gen := c.credential()
		err := c.send(ctx, method, path, body, out, token)

		var authErr *authRejectedError
		if errors.As(err, &authErr) && !handledAuth && c.reauth != nil {
			// An upstream 401 means the request was rejected before
			// execution, so a single resend with a fresh credential is
			// safe for every operation, non-idempotent ones included.
			handledAuth = true
			if rerr := c.refreshCredential(ctx, gen); rerr != nil {
				return &authRejectedError{inner: authErr.inner}
			}
			token, _ = c.credential()
			return c.send(ctx, method, path, body, out, token)
		}
		return err
	}

	err := policy.Do(ctx, op, func() {
		c.metrics.RecordUpstreamRetry()
		c.logger.Warn("retrying upstream call", zap.String("method", method), zap.String("path", path))
	})
	return c.normalize(err, method, path)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, token string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		serr := &statusError{status: resp.StatusCode, body: string(data)}
		if resp.StatusCode == http.StatusUnauthorized {
			return &authRejectedError{inner: serr}
		}
		return serr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// credential returns the cached token and its generation counter. The
// generation lets a caller detect that another caller already refreshed.
func (c *Client) credential() (string, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.tokenGen
}

// refreshCredential re-authenticates against the platform. Exactly one
// refresh is in flight at a time: the first caller that observed the stale
// generation performs it, later callers wait for the result.
func (c *Client) refreshCredential(ctx context.Context, staleGen uint64) error {
	c.mu.Lock()
	if c.tokenGen != staleGen {
		// Someone else refreshed since this caller read the credential.
		c.mu.Unlock()
		return nil
	}
	if c.refreshDone != nil {
		done := c.refreshDone
		c.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	c.refreshDone = done
	c.mu.Unlock()

	token, err := c.reauth(ctx)

	c.mu.Lock()
	if err == nil {
		c.token = token
		c.tokenGen++
	}
	c.refreshDone = nil
	c.mu.Unlock()
	close(done)

	if err != nil {
		c.logger.Error("upstream re-authentication failed", zap.Error(err))
	}
	return err
}

func (c *Client) normalize(err error, method, path string) error {
	if err == nil {
		return nil
	}

	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	var authErr *authRejectedError
	if errors.As(err, &authErr) {
		return apperrors.NewAuthExpired("upstream credential rejected")
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.status == http.StatusNotFound:
			return apperrors.NewNotFound("upstream resource", map[string]any{"path": path})
		case statusErr.status >= 500:
			return apperrors.NewUpstreamUnavailable(statusErr)
		default:
			return apperrors.NewDomainError("UPSTREAM_REJECTED", "upstream rejected request", http.StatusBadGateway, map[string]any{
				"status": statusErr.status,
			})
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	c.logger.Warn("upstream call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
	return apperrors.NewUpstreamUnavailable(err)
}
