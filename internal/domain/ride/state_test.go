package ride

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phase(s State, sub SubState) Phase {
	return Phase{State: s, Sub: sub}
}

func TestParseState(t *testing.T) {
	t.Parallel()

	state, err := ParseState("  active_execution ")
	require.NoError(t, err)
	assert.Equal(t, StateActiveExecution, state)

	_, err = ParseState("ACCEPTED")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestParseSubState(t *testing.T) {
	t.Parallel()

	sub, err := ParseSubState("trip_started")
	require.NoError(t, err)
	assert.Equal(t, SubTripStarted, sub)

	sub, err = ParseSubState("")
	require.NoError(t, err)
	assert.Equal(t, SubNone, sub)

	_, err = ParseSubState("ARRIVING")
	assert.ErrorIs(t, err, ErrInvalidSubState)
}

func TestStateTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StateCompletedFinal.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateCompletedInstance.Terminal())
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateActiveExecution.Terminal())
}

func TestPhaseConsistent(t *testing.T) {
	t.Parallel()

	assert.True(t, phase(StatePending, SubNone).Consistent())
	assert.True(t, phase(StateActiveExecution, SubDriverArrived).Consistent())
	assert.False(t, phase(StateActiveExecution, SubNone).Consistent())
	assert.False(t, phase(StatePending, SubTripStarted).Consistent())
	assert.False(t, phase(StateCompletedInstance, SubTripCompleted).Consistent())
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from Phase
		to   Phase
		want bool
	}{
		{"pending to pre-trip", phase(StatePending, SubNone), phase(StateActivePreTrip, SubNone), true},
		{"pre-trip to on-the-way", phase(StateActivePreTrip, SubNone), phase(StateActiveExecution, SubDriverOnTheWay), true},
		{"on-the-way to arrived", phase(StateActiveExecution, SubDriverOnTheWay), phase(StateActiveExecution, SubDriverArrived), true},
		{"arrived to started", phase(StateActiveExecution, SubDriverArrived), phase(StateActiveExecution, SubTripStarted), true},
		{"started to trip-completed", phase(StateActiveExecution, SubTripStarted), phase(StateActiveExecution, SubTripCompleted), true},
		{"started straight to instance", phase(StateActiveExecution, SubTripStarted), phase(StateCompletedInstance, SubNone), true},
		{"trip-completed to instance", phase(StateActiveExecution, SubTripCompleted), phase(StateCompletedInstance, SubNone), true},
		{"instance to final", phase(StateCompletedInstance, SubNone), phase(StateCompletedFinal, SubNone), true},

		{"pending to execution skips assignment", phase(StatePending, SubNone), phase(StateActiveExecution, SubDriverOnTheWay), false},
		{"on-the-way skips to started", phase(StateActiveExecution, SubDriverOnTheWay), phase(StateActiveExecution, SubTripStarted), false},
		{"arrived back to on-the-way", phase(StateActiveExecution, SubDriverArrived), phase(StateActiveExecution, SubDriverOnTheWay), false},
		{"pre-trip back to pending", phase(StateActivePreTrip, SubNone), phase(StatePending, SubNone), false},
		{"instance back to execution", phase(StateCompletedInstance, SubNone), phase(StateActiveExecution, SubTripStarted), false},
		{"final admits nothing", phase(StateCompletedFinal, SubNone), phase(StateCompletedInstance, SubNone), false},
		{"cancelled admits nothing", phase(StateCancelled, SubNone), phase(StatePending, SubNone), false},
		{"instance cannot cancel", phase(StateCompletedInstance, SubNone), phase(StateCancelled, SubNone), false},

		{"cancel from pending", phase(StatePending, SubNone), phase(StateCancelled, SubNone), true},
		{"cancel from pre-trip", phase(StateActivePreTrip, SubNone), phase(StateCancelled, SubNone), true},
		{"cancel mid-trip", phase(StateActiveExecution, SubTripStarted), phase(StateCancelled, SubNone), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestLegalTargetsCopies(t *testing.T) {
	t.Parallel()

	from := phase(StatePending, SubNone)
	targets := LegalTargets(from)
	require.Len(t, targets, 2)

	// mutating the returned slice must not corrupt the table
	targets[0] = phase(StateCancelled, SubNone)
	assert.True(t, CanTransition(from, phase(StateActivePreTrip, SubNone)))
}

func TestTransitionTableIsClosed(t *testing.T) {
	t.Parallel()

	// every target of every edge must itself be a key in the table
	for _, from := range ReachablePhases() {
		require.True(t, from.Consistent(), "table key %v breaks the sub-state invariant", from)
		for _, to := range LegalTargets(from) {
			assert.True(t, to.Consistent(), "edge %v -> %v breaks the sub-state invariant", from, to)
			_, known := transitions[to]
			assert.True(t, known, "edge %v -> %v leads outside the table", from, to)
		}
	}
}

func TestCancelReachableFromEveryNonTerminalPhase(t *testing.T) {
	t.Parallel()

	cancelled := phase(StateCancelled, SubNone)
	for _, from := range ReachablePhases() {
		if from.State.Terminal() || from.State == StateCompletedInstance {
			continue
		}
		assert.True(t, CanTransition(from, cancelled), "no cancel edge from %v", from)
	}
}
