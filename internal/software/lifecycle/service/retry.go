package service

import (
	"context"
	"errors"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/logger"
	"ride-lifecycle/internal/ports"
)

// TransitionExecutor is the retryable subset of the lifecycle service.
type TransitionExecutor interface {
	ExecuteTransition(ctx context.Context, in ports.TransitionInput) (ports.TransitionResult, error)
}

// RetryingExecutor wraps a TransitionExecutor with bounded retries on
// transient failures. Rejections and conflicts are semantic outcomes and are
// never retried; the idempotency key makes retried commits safe.
type RetryingExecutor struct {
	inner    TransitionExecutor
	logger   *logger.Logger
	attempts int
	baseWait time.Duration
}

// NewRetryingExecutor builds a retry wrapper with 3 attempts and increasing backoff.
func NewRetryingExecutor(inner TransitionExecutor, logger *logger.Logger) *RetryingExecutor {
	return &RetryingExecutor{
		inner:    inner,
		logger:   logger,
		attempts: 3,
		baseWait: 200 * time.Millisecond,
	}
}

// ExecuteTransition runs the wrapped executor, retrying transient errors.
func (r *RetryingExecutor) ExecuteTransition(ctx context.Context, in ports.TransitionInput) (ports.TransitionResult, error) {
	var (
		result  ports.TransitionResult
		lastErr error
	)

	wait := r.baseWait
	for attempt := 1; attempt <= r.attempts; attempt++ {
		result, lastErr = r.inner.ExecuteTransition(ctx, in)
		if lastErr == nil || !retryable(lastErr) {
			return result, lastErr
		}

		r.logger.Error(ctx, "retry_attempted", "Transition attempt failed; will retry", lastErr,
			map[string]any{"ride_id": in.RideID, "attempt": attempt})

		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	return result, lastErr
}

// retryable reports whether an error may succeed on retry. Validation
// rejections, conflicts and missing rides are final answers.
func retryable(err error) bool {
	var verr *ride.ValidationError
	if errors.As(err, &verr) {
		return false
	}
	switch {
	case errors.Is(err, ride.ErrConflict),
		errors.Is(err, ride.ErrNotFound),
		errors.Is(err, ErrDriverRequired),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
