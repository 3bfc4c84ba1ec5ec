// Package retry implements bounded exponential backoff for catalog API
// calls. Failures are categorized into the shared error taxonomy before the
// retry decision, so callers can pass raw client errors straight through.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/trx/internal/shared"
)

// Policy bounds how one operation is retried. Retryable lists the error
// kinds worth another attempt; RateLimited marks the subset whose
// service-provided wait hint overrides the backoff delay.
type Policy struct {
	Service      string
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Retryable    []shared.ErrorKind
	RateLimited  []shared.ErrorKind
}

// DefaultPolicy retries transient service failures three times with
// doubling delays capped at a minute.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Retryable:    []shared.ErrorKind{shared.KindRateLimit, shared.KindNetwork, shared.KindAPI},
		RateLimited:  []shared.ErrorKind{shared.KindRateLimit},
	}
}

// WithInitialDelay returns a copy of the policy with a different first wait.
func (p Policy) WithInitialDelay(d time.Duration) Policy {
	p.InitialDelay = d
	return p
}

// WithService returns a copy of the policy labeling categorized errors with
// the given service name.
func (p Policy) WithService(service string) Policy {
	p.Service = service
	return p
}

func (p Policy) retryable(kind shared.ErrorKind) bool {
	for _, k := range p.Retryable {
		if k == kind {
			return true
		}
	}
	return false
}

func (p Policy) rateLimited(kind shared.ErrorKind) bool {
	for _, k := range p.RateLimited {
		if k == kind {
			return true
		}
	}
	return false
}

func (p Policy) serviceLabel() string {
	if p.Service == "" {
		return "api"
	}
	return p.Service
}

// waitFor picks the next wait: a rate-limit hint verbatim when the service
// supplied one, otherwise the current delay capped at MaxDelay.
func (p Policy) waitFor(err error, kind shared.ErrorKind, delay time.Duration) time.Duration {
	if p.rateLimited(kind) {
		var limited *shared.RateLimitError
		if errors.As(err, &limited) && limited.RetryAfter > 0 {
			return limited.RetryAfter
		}
	}
	if delay < p.MaxDelay {
		return delay
	}
	return p.MaxDelay
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget runs out. Non-retryable failures propagate on the attempt
// that produced them with no waiting. Exhaustion returns a
// [shared.RetryExhaustedError] wrapping the final attempt's error. The
// success value is never inspected.
func Do[T any](ctx context.Context, logger *log.Logger, operation string, policy Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	delay := policy.InitialDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}

		categorized := shared.Categorize(err, policy.serviceLabel())
		kind := shared.KindOf(categorized)
		if !policy.retryable(kind) {
			return zero, categorized
		}
		if attempt >= policy.MaxAttempts {
			logger.Error("retries exhausted", "operation", operation, "attempts", policy.MaxAttempts, "err", categorized)
			return zero, &shared.RetryExhaustedError{Operation: operation, Attempts: policy.MaxAttempts, Err: categorized}
		}

		wait := policy.waitFor(categorized, kind, delay)
		logger.Warn("attempt failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"wait", wait,
			"err", categorized,
		)
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
		delay = time.Duration(float64(delay) * policy.Multiplier)
	}
}

// DoErr is [Do] for operations with no return value.
func DoErr(ctx context.Context, logger *log.Logger, operation string, policy Policy, fn func(context.Context) error) error {
	_, err := Do(ctx, logger, operation, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
