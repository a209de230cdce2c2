package resilience

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// Policy is a bounded retry policy. Before retry n (0-based) it sleeps
// Base * Factor^n, so with the default one-second base a factor of 2.0
// yields sleeps of 1s, 2s, 4s and a factor of 1.0 a constant 1s.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Factor is the exponential backoff base.
	Factor float64

	// Base scales every sleep. Zero means one second.
	Base time.Duration

	// Retryable decides whether an error is worth another attempt.
	// If nil, every error except context cancellation is retried.
	Retryable func(err error) bool

	// OnRetry is called before each retry sleep with the 1-based retry number.
	OnRetry func(attempt int, err error)
}

// NewPolicy returns a policy of attempts tries with factor^n second sleeps.
func NewPolicy(attempts int, factor float64) Policy {
	return Policy{MaxAttempts: attempts, Factor: factor, Base: time.Second}
}

// WithLogger returns a copy of p that logs each retry for service/operation.
func (p Policy) WithLogger(service, operation string) Policy {
	p.OnRetry = RetryLogger(service, operation)
	return p
}

// WithBase returns a copy of p with a different sleep unit.
func (p Policy) WithBase(base time.Duration) Policy {
	p.Base = base
	return p
}

// Backoff returns the sleep before the retry following attempt (0-based).
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	factor := p.Factor
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(float64(base) * math.Pow(factor, float64(attempt)))
}

// Do runs fn under the policy and returns the last error once attempts are
// exhausted. Context cancellation interrupts the backoff sleep.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions returning a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = RetryAny
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) {
			return zero, lastErr
		}

		// No sleep after the final attempt.
		if attempt >= attempts-1 {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
