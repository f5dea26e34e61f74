package aeims

import (
	"context"
	"errors"
	"time"
)

// Policy bounds retry behavior for upstream calls. A policy is a plain
// value so call sites share one definition instead of ad hoc loops.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// LinearBackoff returns a backoff function growing as attempt * base.
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// DefaultPolicy is used for idempotent (read and repeat-safe) operations.
func DefaultPolicy(attempts int, baseDelay time.Duration) Policy {
	if attempts <= 0 {
		attempts = 3
	}
	return Policy{MaxAttempts: attempts, Backoff: LinearBackoff(baseDelay)}
}

// SinglePolicy performs exactly one attempt. Non-idempotent operations
// (call initiation, conference creation, call files, switch commands) use
// it because a retried request can place a duplicate outbound call. This
// is a deliberate design decision, not an incidental default.
func SinglePolicy() Policy {
	return Policy{MaxAttempts: 1}
}

// Do runs op under the policy. Only transient failures are retried;
// permanent rejections surface immediately. The last error is returned
// when attempts are exhausted.
func (p Policy) Do(ctx context.Context, op func() error, onRetry func()) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !transient(err) || attempt == attempts {
			return lastErr
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if onRetry != nil {
			onRetry()
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// transient reports whether the failure is worth retrying: transport
// errors and upstream 5xx responses. Auth rejections and 4xx responses
// are permanent for a given request.
func transient(err error) bool {
	var authErr *authRejectedError
	if errors.As(err, &authErr) {
		return false
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.status >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
