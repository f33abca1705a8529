package ride

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rejectReason(t *testing.T, err error) RejectReason {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Reason
}

func TestValidateForwardChain(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultPolicy)

	cases := []struct {
		name  string
		from  Phase
		to    Phase
		actor ActorType
	}{
		{"system assigns driver", phase(StatePending, SubNone), phase(StateActivePreTrip, SubNone), ActorSystem},
		{"driver accepts", phase(StatePending, SubNone), phase(StateActivePreTrip, SubNone), ActorDriver},
		{"driver departs", phase(StateActivePreTrip, SubNone), phase(StateActiveExecution, SubDriverOnTheWay), ActorDriver},
		{"driver arrives", phase(StateActiveExecution, SubDriverOnTheWay), phase(StateActiveExecution, SubDriverArrived), ActorDriver},
		{"driver starts trip", phase(StateActiveExecution, SubDriverArrived), phase(StateActiveExecution, SubTripStarted), ActorDriver},
		{"driver ends trip", phase(StateActiveExecution, SubTripStarted), phase(StateCompletedInstance, SubNone), ActorDriver},
		{"passenger finalizes", phase(StateCompletedInstance, SubNone), phase(StateCompletedFinal, SubNone), ActorPassenger},
		{"system finalizes", phase(StateCompletedInstance, SubNone), phase(StateCompletedFinal, SubNone), ActorSystem},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			decision, err := v.Validate(tc.from, tc.to, tc.actor)
			require.NoError(t, err)
			assert.Equal(t, DecisionCommit, decision)
		})
	}
}

func TestValidateActorPermissions(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultPolicy)

	cases := []struct {
		name  string
		from  Phase
		to    Phase
		actor ActorType
	}{
		{"passenger cannot accept", phase(StatePending, SubNone), phase(StateActivePreTrip, SubNone), ActorPassenger},
		{"passenger cannot drive", phase(StateActivePreTrip, SubNone), phase(StateActiveExecution, SubDriverOnTheWay), ActorPassenger},
		{"system cannot advance execution", phase(StateActiveExecution, SubDriverOnTheWay), phase(StateActiveExecution, SubDriverArrived), ActorSystem},
		{"passenger cannot complete instance", phase(StateActiveExecution, SubTripStarted), phase(StateCompletedInstance, SubNone), ActorPassenger},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Validate(tc.from, tc.to, tc.actor)
			assert.Equal(t, ReasonActorNotPermitted, rejectReason(t, err))
		})
	}
}

func TestValidateDriverFinalizationPolicy(t *testing.T) {
	t.Parallel()

	from := phase(StateCompletedInstance, SubNone)
	to := phase(StateCompletedFinal, SubNone)

	allowed := NewValidator(Policy{AllowDriverFinalization: true})
	decision, err := allowed.Validate(from, to, ActorDriver)
	require.NoError(t, err)
	assert.Equal(t, DecisionCommit, decision)

	denied := NewValidator(Policy{AllowDriverFinalization: false})
	_, err = denied.Validate(from, to, ActorDriver)
	assert.Equal(t, ReasonActorNotPermitted, rejectReason(t, err))

	// the policy only gates the driver path
	_, err = denied.Validate(from, to, ActorPassenger)
	assert.NoError(t, err)
}

func TestValidateCancellation(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultPolicy)
	cancel := phase(StateCancelled, SubNone)

	for _, actor := range []ActorType{ActorPassenger, ActorDriver, ActorSystem} {
		for _, from := range []Phase{
			phase(StatePending, SubNone),
			phase(StateActivePreTrip, SubNone),
			phase(StateActiveExecution, SubDriverOnTheWay),
			phase(StateActiveExecution, SubTripStarted),
		} {
			decision, err := v.Validate(from, cancel, actor)
			require.NoError(t, err, "cancel from %v by %s", from, actor)
			assert.Equal(t, DecisionCommit, decision)
		}
	}

	// finished trips can only be finalized, never cancelled
	_, err := v.Validate(phase(StateCompletedInstance, SubNone), cancel, ActorPassenger)
	assert.Equal(t, ReasonNotReachable, rejectReason(t, err))

	_, err = v.Validate(phase(StateCancelled, SubNone), cancel, ActorPassenger)
	assert.Equal(t, ReasonTerminalState, rejectReason(t, err))

	_, err = v.Validate(phase(StateCompletedFinal, SubNone), cancel, ActorSystem)
	assert.Equal(t, ReasonTerminalState, rejectReason(t, err))
}

func TestValidateRejectsBackwardMoves(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultPolicy)

	_, err := v.Validate(phase(StateActiveExecution, SubDriverArrived), phase(StateActiveExecution, SubDriverOnTheWay), ActorDriver)
	assert.Equal(t, ReasonBackwardMove, rejectReason(t, err))

	_, err = v.Validate(phase(StateCompletedInstance, SubNone), phase(StateActiveExecution, SubTripStarted), ActorDriver)
	assert.Equal(t, ReasonBackwardMove, rejectReason(t, err))
}

func TestValidateRejectsSkips(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultPolicy)

	_, err := v.Validate(phase(StatePending, SubNone), phase(StateActiveExecution, SubDriverOnTheWay), ActorDriver)
	assert.Equal(t, ReasonNotReachable, rejectReason(t, err))

	_, err = v.Validate(phase(StateActiveExecution, SubDriverOnTheWay), phase(StateCompletedInstance, SubNone), ActorDriver)
	assert.Equal(t, ReasonNotReachable, rejectReason(t, err))
}

func TestValidateIdempotentNoop(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultPolicy)

	current := phase(StateActiveExecution, SubDriverArrived)
	decision, err := v.Validate(current, current, ActorDriver)
	require.NoError(t, err)
	assert.Equal(t, DecisionNoop, decision)

	// outside execution a same-phase request is not a no-op
	_, err = v.Validate(phase(StateActivePreTrip, SubNone), phase(StateActivePreTrip, SubNone), ActorDriver)
	assert.Equal(t, ReasonNotReachable, rejectReason(t, err))
}

func TestValidateNormalizesTripCompletedAlias(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultPolicy)

	// legacy clients send (COMPLETED_INSTANCE, TRIP_COMPLETED)
	decision, err := v.Validate(
		phase(StateActiveExecution, SubTripStarted),
		phase(StateCompletedInstance, SubTripCompleted),
		ActorDriver,
	)
	require.NoError(t, err)
	assert.Equal(t, DecisionCommit, decision)

	assert.Equal(t, phase(StateCompletedInstance, SubNone),
		NormalizeTarget(phase(StateCompletedInstance, SubTripCompleted)))
}

func TestValidateInvalidInput(t *testing.T) {
	t.Parallel()

	v := NewValidator(DefaultPolicy)

	_, err := v.Validate(phase(StatePending, SubNone), phase(StatePending, SubNone), ActorType("ADMIN"))
	assert.Equal(t, ReasonInvalidActor, rejectReason(t, err))

	_, err = v.Validate(phase(StatePending, SubNone), Phase{State: State("PAUSED")}, ActorSystem)
	assert.Equal(t, ReasonInvalidTarget, rejectReason(t, err))

	// execution without a sub-state is not a phase
	_, err = v.Validate(phase(StateActivePreTrip, SubNone), phase(StateActiveExecution, SubNone), ActorDriver)
	assert.Equal(t, ReasonInvalidTarget, rejectReason(t, err))

	// sub-state outside execution
	_, err = v.Validate(phase(StatePending, SubNone), phase(StateActivePreTrip, SubDriverArrived), ActorDriver)
	assert.Equal(t, ReasonInvalidTarget, rejectReason(t, err))
}
