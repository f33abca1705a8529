package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/logger"
	"ride-lifecycle/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedExecutor returns canned responses, one per call.
type scriptedExecutor struct {
	calls  int
	script []error
	result ports.TransitionResult
}

func (s *scriptedExecutor) ExecuteTransition(_ context.Context, _ ports.TransitionInput) (ports.TransitionResult, error) {
	err := s.script[s.calls]
	s.calls++
	if err != nil {
		return ports.TransitionResult{}, err
	}
	return s.result, nil
}

func newRetrier(inner TransitionExecutor) *RetryingExecutor {
	r := NewRetryingExecutor(inner, logger.NewWithWriter("retry-test", io.Discard))
	r.baseWait = 0
	return r
}

func TestRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	inner := &scriptedExecutor{
		script: []error{errors.New("db timeout"), errors.New("db timeout"), nil},
		result: ports.TransitionResult{Outcome: ports.OutcomeCommitted},
	}

	result, err := newRetrier(inner).ExecuteTransition(context.Background(), ports.TransitionInput{RideID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeCommitted, result.Outcome)
	assert.Equal(t, 3, inner.calls)
}

func TestGivesUpAfterThreeAttempts(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker unavailable")
	inner := &scriptedExecutor{script: []error{boom, boom, boom}}

	_, err := newRetrier(inner).ExecuteTransition(context.Background(), ports.TransitionInput{RideID: "r1"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, inner.calls)
}

func TestNeverRetriesRejections(t *testing.T) {
	t.Parallel()

	inner := &scriptedExecutor{script: []error{&ride.ValidationError{Reason: ride.ReasonNotReachable}}}

	_, err := newRetrier(inner).ExecuteTransition(context.Background(), ports.TransitionInput{RideID: "r1"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls, "rejections are final answers")
}

func TestNeverRetriesConflicts(t *testing.T) {
	t.Parallel()

	inner := &scriptedExecutor{script: []error{ride.ErrConflict}}

	_, err := newRetrier(inner).ExecuteTransition(context.Background(), ports.TransitionInput{RideID: "r1"})
	require.ErrorIs(t, err, ride.ErrConflict)
	assert.Equal(t, 1, inner.calls)
}

func TestNeverRetriesMissingRides(t *testing.T) {
	t.Parallel()

	inner := &scriptedExecutor{script: []error{ride.ErrNotFound}}

	_, err := newRetrier(inner).ExecuteTransition(context.Background(), ports.TransitionInput{RideID: "r1"})
	require.ErrorIs(t, err, ride.ErrNotFound)
	assert.Equal(t, 1, inner.calls)
}
