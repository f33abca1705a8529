package ride

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLegacyStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		state State
		sub   SubState
		want  string
	}{
		{StatePending, SubNone, "pending"},
		{StateActivePreTrip, SubNone, "accepted"},
		{StateActiveExecution, SubDriverOnTheWay, "driver_on_way"},
		{StateActiveExecution, SubDriverArrived, "driver_arrived"},
		{StateActiveExecution, SubTripStarted, "trip_started"},
		{StateActiveExecution, SubTripCompleted, "trip_completed"},
		{StateCompletedInstance, SubNone, "trip_completed"},
		{StateCompletedFinal, SubNone, "completed"},
		{StateCancelled, SubNone, "cancelled"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ProjectLegacyStatus(tc.state, tc.sub),
			"%s/%s", tc.state, tc.sub)
	}
}

func TestProjectLegacyStatusTotal(t *testing.T) {
	t.Parallel()

	// every reachable phase projects to a non-empty legacy status
	for _, p := range ReachablePhases() {
		assert.NotEmpty(t, ProjectLegacyStatus(p.State, p.Sub), "phase %v", p)
	}

	// even garbage input lands in a bucket
	assert.Equal(t, LegacyPending, ProjectLegacyStatus(State("???"), SubNone))
}

func TestClassifyLegacyStatusRoundtrip(t *testing.T) {
	t.Parallel()

	// projecting then classifying must land back on the same phase, modulo the
	// TRIP_COMPLETED alias which collapses into COMPLETED_INSTANCE
	for _, p := range ReachablePhases() {
		legacy := ProjectLegacyStatus(p.State, p.Sub)
		state, sub, ok := ClassifyLegacyStatus(legacy)
		require.True(t, ok, "projection %q unclassifiable", legacy)

		want := p
		if p == phase(StateActiveExecution, SubTripCompleted) {
			want = phase(StateCompletedInstance, SubNone)
		}
		assert.Equal(t, want, phase(state, sub), "legacy %q", legacy)
	}
}

func TestClassifyLegacyStatusSpellings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want Phase
	}{
		{"pending", phase(StatePending, SubNone)},
		{"Requested", phase(StatePending, SubNone)},
		{"SEARCHING", phase(StatePending, SubNone)},
		{"accepted", phase(StateActivePreTrip, SubNone)},
		{"driver-assigned", phase(StateActivePreTrip, SubNone)},
		{"driver_on_way", phase(StateActiveExecution, SubDriverOnTheWay)},
		{"Driver On The Way", phase(StateActiveExecution, SubDriverOnTheWay)},
		{"en-route", phase(StateActiveExecution, SubDriverOnTheWay)},
		{"arrived", phase(StateActiveExecution, SubDriverArrived)},
		{"at pickup", phase(StateActiveExecution, SubDriverArrived)},
		{"in_progress", phase(StateActiveExecution, SubTripStarted)},
		{"ongoing", phase(StateActiveExecution, SubTripStarted)},
		{"trip_completed", phase(StateCompletedInstance, SubNone)},
		{"dropped-off", phase(StateCompletedInstance, SubNone)},
		{"completed", phase(StateCompletedFinal, SubNone)},
		{"FINISHED", phase(StateCompletedFinal, SubNone)},
		{"cancelled", phase(StateCancelled, SubNone)},
		{"canceled_by_driver", phase(StateCancelled, SubNone)},
		{"expired", phase(StateCancelled, SubNone)},
	}

	for _, tc := range cases {
		state, sub, ok := ClassifyLegacyStatus(tc.raw)
		require.True(t, ok, "raw %q", tc.raw)
		assert.Equal(t, tc.want, phase(state, sub), "raw %q", tc.raw)
	}
}

func TestClassifyLegacyStatusUnknown(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "???", "teleporting", "status_42"} {
		state, sub, ok := ClassifyLegacyStatus(raw)
		assert.False(t, ok, "raw %q", raw)
		assert.Equal(t, StatePending, state)
		assert.Equal(t, SubNone, sub)
	}
}
