package aeims

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

func newTestClient(t *testing.T, handler http.Handler, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if opts.RetryBase == 0 {
		opts.RetryBase = time.Millisecond
	}
	return NewClient(srv.URL, opts, zap.NewNop())
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, "SIP-Gateway/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"status":"healthy","uptime":42}`)) //nolint:errcheck
	}), Options{})

	health, err := client.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, float64(42), health.UptimeSeconds)
}

func TestAuthorizationHeader(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{}`)) //nolint:errcheck
	}), Options{AuthToken: "secret-token"})

	_, err := client.SwitchStatus(context.Background())
	require.NoError(t, err)
}

func TestReadRetriesOn5xx(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"up"}`)) //nolint:errcheck
	}), Options{RetryAttempts: 3})

	status, err := client.SwitchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInitiateCallNeverRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), Options{RetryAttempts: 3})

	_, err := client.InitiateCall(context.Background(), CallRequest{From: "1001", To: "1002"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "call initiation must not be retried")
}

func TestExecuteCommandNeverRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}), Options{RetryAttempts: 3})

	_, err := client.ExecuteCommand(context.Background(), CommandRequest{Command: "status"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestValidationBeforeRequest(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}), Options{})

	_, err := client.InitiateCall(context.Background(), CallRequest{From: "1001"})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "invalid requests never reach upstream")
}

func TestReauthOn401(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status":"up"}`)) //nolint:errcheck
	}), Options{
		AuthToken: "stale",
		Reauth: func(ctx context.Context) (string, error) {
			return "fresh", nil
		},
	})

	status, err := client.SwitchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "one rejected attempt plus one resend")
}

func TestReauthSingleFlight(t *testing.T) {
	var reauths int32
	var mu sync.Mutex
	valid := "stale"

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ok := r.Header.Get("Authorization") == "Bearer "+valid && valid == "fresh"
		mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status":"up"}`)) //nolint:errcheck
	}), Options{
		AuthToken: "stale",
		Reauth: func(ctx context.Context) (string, error) {
			atomic.AddInt32(&reauths, 1)
			time.Sleep(50 * time.Millisecond)
			mu.Lock()
			valid = "fresh"
			mu.Unlock()
			return "fresh", nil
		},
	})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.SwitchStatus(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&reauths), "concurrent 401s share one refresh")
}

func TestReauthFailureSurfacesAuthExpired(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), Options{
		AuthToken: "stale",
		Reauth: func(ctx context.Context) (string, error) {
			return "", context.DeadlineExceeded
		},
	})

	_, err := client.SwitchStatus(context.Background())
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusUnauthorized, domainErr.HTTPStatus)
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantCode   string
		wantStatus int
	}{
		{"not found", http.StatusNotFound, "NOT_FOUND", http.StatusNotFound},
		{"server error", http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE", http.StatusBadGateway},
		{"client error", http.StatusUnprocessableEntity, "UPSTREAM_REJECTED", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}), Options{RetryAttempts: 1})

			_, err := client.CallDetails(context.Background(), "call-1")
			require.Error(t, err)
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, tt.wantCode, domainErr.Code)
			assert.Equal(t, tt.wantStatus, domainErr.HTTPStatus)
		})
	}
}

func TestCallAnalyticsRange(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analytics/calls", r.URL.Path)
		assert.Equal(t, "7d", r.URL.Query().Get("range"))
		w.Write([]byte(`{"totalCalls":10}`)) //nolint:errcheck
	}), Options{})

	analytics, err := client.CallAnalytics(context.Background(), "7d")
	require.NoError(t, err)
	assert.Equal(t, 10, analytics.TotalCalls)
}
