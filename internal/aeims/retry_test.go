package aeims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := DefaultPolicy(3, time.Millisecond).Do(context.Background(), func() error {
		calls++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyDoRetriesTransientFailures(t *testing.T) {
	calls := 0
	retries := 0
	err := DefaultPolicy(3, time.Millisecond).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &statusError{status: 503, body: "unavailable"}
		}
		return nil
	}, func() { retries++ })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestPolicyDoExhaustsAttempts(t *testing.T) {
	calls := 0
	failure := &statusError{status: 502, body: "bad gateway"}
	err := DefaultPolicy(3, time.Millisecond).Do(context.Background(), func() error {
		calls++
		return failure
	}, nil)

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 3, calls)
}

func TestPolicyDoDoesNotRetryPermanentFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"bad request", &statusError{status: 400, body: "bad request"}},
		{"auth rejected", &authRejectedError{inner: &statusError{status: 401}}},
		{"context canceled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := DefaultPolicy(3, time.Millisecond).Do(context.Background(), func() error {
				calls++
				return tt.err
			}, nil)

			assert.Error(t, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestSinglePolicyNeverRetries(t *testing.T) {
	calls := 0
	err := SinglePolicy().Do(context.Background(), func() error {
		calls++
		return &statusError{status: 503, body: "unavailable"}
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := DefaultPolicy(3, time.Hour).Do(ctx, func() error {
		calls++
		return errors.New("transport broken")
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestLinearBackoff(t *testing.T) {
	backoff := LinearBackoff(100 * time.Millisecond)

	assert.Equal(t, 100*time.Millisecond, backoff(1))
	assert.Equal(t, 300*time.Millisecond, backoff(3))
}
