package ride

import (
	"errors"
	"strings"
)

// State is a canonical ride lifecycle state as stored in the `rides` table.
type State string

const (
	StatePending           State = "PENDING"
	StateActivePreTrip     State = "ACTIVE_PRE_TRIP"
	StateActiveExecution   State = "ACTIVE_EXECUTION"
	StateCompletedInstance State = "COMPLETED_INSTANCE"
	StateCompletedFinal    State = "COMPLETED_FINAL"
	StateCancelled         State = "CANCELLED"
)

// SubState refines ACTIVE_EXECUTION. It is empty for every other state.
type SubState string

const (
	SubNone           SubState = ""
	SubDriverOnTheWay SubState = "DRIVER_ON_THE_WAY"
	SubDriverArrived  SubState = "DRIVER_ARRIVED"
	SubTripStarted    SubState = "TRIP_STARTED"
	SubTripCompleted  SubState = "TRIP_COMPLETED"
)

var (
	ErrInvalidState    = errors.New("invalid ride state")
	ErrInvalidSubState = errors.New("invalid ride sub-state")
)

// ParseState normalizes (uppercases+trims) and validates a state string.
func ParseState(in string) (State, error) {
	state := State(strings.ToUpper(strings.TrimSpace(in)))
	if state.Valid() {
		return state, nil
	}
	return "", ErrInvalidState
}

// ParseSubState normalizes and validates a sub-state string. Empty input is SubNone.
func ParseSubState(in string) (SubState, error) {
	sub := SubState(strings.ToUpper(strings.TrimSpace(in)))
	if sub.Valid() {
		return sub, nil
	}
	return "", ErrInvalidSubState
}

// Valid reports whether state is one of the allowed state constants.
func (state State) Valid() bool {
	switch state {
	case StatePending, StateActivePreTrip, StateActiveExecution,
		StateCompletedInstance, StateCompletedFinal, StateCancelled:
		return true
	default:
		return false
	}
}

// Terminal indicates whether no further transition may leave this state.
// COMPLETED_INSTANCE is not terminal: it still admits finalization.
func (state State) Terminal() bool {
	return state == StateCompletedFinal || state == StateCancelled
}

// String returns the string representation of the State.
func (state State) String() string {
	return string(state)
}

// Valid reports whether sub is one of the allowed sub-state constants (or empty).
func (sub SubState) Valid() bool {
	switch sub {
	case SubNone, SubDriverOnTheWay, SubDriverArrived, SubTripStarted, SubTripCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the SubState.
func (sub SubState) String() string {
	return string(sub)
}

// Phase is a (state, sub-state) pair, the unit the transition table is keyed by.
type Phase struct {
	State State
	Sub   SubState
}

// Consistent reports whether the pair respects the sub-state invariant:
// a sub-state is present if and only if the state is ACTIVE_EXECUTION.
func (p Phase) Consistent() bool {
	if p.State == StateActiveExecution {
		return p.Sub != SubNone && p.Sub.Valid()
	}
	return p.Sub == SubNone
}

// transitions is the directed transition table: every reachable phase maps to
// the set of phases it may move to. CANCELLED is listed explicitly for each
// non-terminal phase so the table alone answers reachability.
var transitions = map[Phase][]Phase{
	{StatePending, SubNone}: {
		{StateActivePreTrip, SubNone},
		{StateCancelled, SubNone},
	},
	{StateActivePreTrip, SubNone}: {
		{StateActiveExecution, SubDriverOnTheWay},
		{StateCancelled, SubNone},
	},
	{StateActiveExecution, SubDriverOnTheWay}: {
		{StateActiveExecution, SubDriverArrived},
		{StateCancelled, SubNone},
	},
	{StateActiveExecution, SubDriverArrived}: {
		{StateActiveExecution, SubTripStarted},
		{StateCancelled, SubNone},
	},
	{StateActiveExecution, SubTripStarted}: {
		{StateActiveExecution, SubTripCompleted},
		{StateCompletedInstance, SubNone},
		{StateCancelled, SubNone},
	},
	{StateActiveExecution, SubTripCompleted}: {
		{StateCompletedInstance, SubNone},
		{StateCancelled, SubNone},
	},
	{StateCompletedInstance, SubNone}: {
		{StateCompletedFinal, SubNone},
	},
	{StateCompletedFinal, SubNone}: {},
	{StateCancelled, SubNone}:      {},
}

// CanTransition reports whether the table has an edge from `from` to `to`.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LegalTargets returns the phases reachable from `from` in one step.
func LegalTargets(from Phase) []Phase {
	next := transitions[from]
	out := make([]Phase, len(next))
	copy(out, next)
	return out
}

// ReachablePhases lists every phase that appears in the transition table.
func ReachablePhases() []Phase {
	out := make([]Phase, 0, len(transitions))
	for p := range transitions {
		out = append(out, p)
	}
	return out
}
