// Package awsretry wraps individual AWS SDK calls with throttle-aware
// exponential backoff.
//
// The wrapper is pure control flow: every invocation owns its own backoff
// state, so it is safe to call concurrently from multiple collection tasks.
// Only rate-limit errors are retried; everything else propagates to the
// caller unchanged.
package awsretry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
)

// ErrRetriesExhausted marks a call that kept hitting rate limits until the
// retry budget ran out. Callers at the fan-out boundary convert it into a
// skipped task rather than aborting the run.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Policy controls how a wrapped call is retried. The source report scripts
// disagree on constants (5×2s for rightsizing, 10×10s for load balancer
// health), so the policy stays per call site instead of being fixed globally.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialDelay is the sleep before the first retry. Each subsequent
	// retry doubles the delay: d, 2d, 4d, ...
	InitialDelay time.Duration
}

// DefaultPolicy matches the most common constants in the report scripts.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 5, InitialDelay: 2 * time.Second}
}

// Do invokes fn. When fn fails with a throttling error, Do sleeps for the
// current delay, doubles it, and retries, up to p.MaxRetries times. Any
// non-throttling error is returned immediately without sleeping. When the
// retry budget is exhausted the returned error wraps ErrRetriesExhausted.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	return doWithTimer(ctx, p, fn, nil)
}

// doWithTimer is Do with an injectable backoff timer. Tests pass a fake
// timer to observe the delay sequence without sleeping; a nil timer selects
// the real clock.
func doWithTimer[T any](
	ctx context.Context,
	p Policy,
	fn func(ctx context.Context) (T, error),
	timer backoff.Timer,
) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = 2
	// Zero randomization keeps the sequence exactly d, 2d, 4d, ... so the
	// worst-case total sleep is predictable from the policy alone.
	b.RandomizationFactor = 0
	b.MaxInterval = 24 * time.Hour
	b.MaxElapsedTime = 0 // bounded by MaxRetries, not wall clock

	op := func() (T, error) {
		v, err := fn(ctx)
		if err != nil && !IsThrottle(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	v, err := backoff.RetryNotifyWithTimerAndData(op, bo, nil, timer)
	if err == nil {
		return v, nil
	}
	if IsThrottle(err) {
		return v, fmt.Errorf("%w after %d retries: %v", ErrRetriesExhausted, retries, err)
	}
	return v, err
}

// throttleCodes are the AWS error codes that signal a request-frequency
// quota was exceeded. Mirrors the SDK's own throttle classification.
var throttleCodes = map[string]struct{}{
	"Throttling":                {},
	"ThrottlingException":       {},
	"ThrottledException":        {},
	"TooManyRequestsException":  {},
	"RequestLimitExceeded":      {},
	"RequestThrottled":          {},
	"RequestThrottledException": {},
	"SlowDown":                  {},
	"EC2ThrottledException":     {},
}

// IsThrottle reports whether err is a rate-limit error: transient and safe
// to retry, as opposed to credential, connectivity, or validation failures.
func IsThrottle(err error) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	_, ok := throttleCodes[ae.ErrorCode()]
	return ok
}
