package bughound

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrProviderUnavailable reports that every retry attempt against the
// language model provider failed with a transient error. Nodes catch it and
// substitute degraded defaults instead of aborting the run.
var ErrProviderUnavailable = errors.New("language model provider unavailable")

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient wraps an error so IsTransient reports it as retryable.
// Provider implementations use it for timeouts, rate-limit responses, and
// connection failures.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err belongs to the retryable failure class.
func IsTransient(err error) bool {
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// RetryPolicy controls how the invoker retries transient provider failures.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt; it doubles per
	// attempt and is capped at MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Retryable classifies errors; defaults to IsTransient.
	Retryable func(error) bool
}

// DefaultRetryPolicy mirrors the provider clients' rate-limit behavior:
// four attempts with 1s/2s/4s backoff, capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Retryable:   IsTransient,
	}
}

// Invoker wraps an LLMProvider with bounded retry. It never mutates task
// state; it only performs the outbound call.
type Invoker struct {
	provider LLMProvider
	policy   RetryPolicy
	log      *zap.Logger
}

// NewInvoker builds an Invoker. A zero-valued policy field falls back to the
// corresponding default.
func NewInvoker(provider LLMProvider, policy RetryPolicy, log *zap.Logger) *Invoker {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{provider: provider, policy: policy, log: log}
}

// Invoke calls the provider, retrying transient failures with capped
// exponential backoff. Permanent failures propagate immediately. When all
// attempts fail transiently the returned error wraps ErrProviderUnavailable.
func (iv *Invoker) Invoke(ctx context.Context, messages []Message) (string, error) {
	delay := iv.policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= iv.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > iv.policy.MaxDelay {
				delay = iv.policy.MaxDelay
			}
		}

		text, err := iv.provider.Generate(ctx, messages)
		if err == nil {
			return text, nil
		}
		if !iv.policy.Retryable(err) {
			return "", err
		}
		lastErr = err
		iv.log.Warn("provider call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", iv.policy.MaxAttempts),
			zap.Error(err))
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrProviderUnavailable, iv.policy.MaxAttempts, lastErr)
}
