package ride

import "fmt"

// RejectReason is a machine-readable reason code carried on every
// validation rejection so callers can react specifically.
type RejectReason string

const (
	ReasonInvalidTarget     RejectReason = "invalid_target"
	ReasonTerminalState     RejectReason = "terminal_state"
	ReasonNotReachable      RejectReason = "not_reachable"
	ReasonBackwardMove      RejectReason = "backward_move"
	ReasonActorNotPermitted RejectReason = "actor_not_permitted"
	ReasonInvalidActor      RejectReason = "invalid_actor"
	// ReasonTasksIncomplete rejects completing an errand ride that still has
	// open tasks. Raised by the executor, which sees the task list; the
	// validator itself stays phase-only.
	ReasonTasksIncomplete RejectReason = "tasks_incomplete"
)

// ValidationError is returned when a requested transition is not legal from
// the current phase for the given actor. Always recoverable by refreshing
// state; never retried automatically.
type ValidationError struct {
	Reason RejectReason
	From   Phase
	To     Phase
	Actor  ActorType
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transition %s/%s -> %s/%s by %s rejected: %s",
		e.From.State, e.From.Sub, e.To.State, e.To.Sub, e.Actor, e.Reason)
}

// Decision is the outcome of a successful validation.
type Decision int

const (
	// DecisionCommit: the transition is legal and must be committed.
	DecisionCommit Decision = iota
	// DecisionNoop: the target equals the current execution phase; accept
	// without mutation, refreshing only the compatibility projection. This
	// absorbs duplicate retries.
	DecisionNoop
)

// Policy holds the explicit permission decisions the validator enforces.
type Policy struct {
	// AllowDriverFinalization permits DRIVER to move
	// COMPLETED_INSTANCE -> COMPLETED_FINAL. The legacy clients attempt the
	// driver path and treat a rejection as "await passenger confirmation";
	// with the flag off, driver attempts get actor_not_permitted.
	AllowDriverFinalization bool
}

// DefaultPolicy matches the historical client behaviour.
var DefaultPolicy = Policy{AllowDriverFinalization: true}

// Validator decides transition legality. Pure: no I/O, deterministic.
type Validator struct {
	policy Policy
}

// NewValidator builds a validator with the given policy.
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// Validate decides whether the move from current to target is legal for the
// actor. Target sub-states are normalized first: legacy callers send
// (COMPLETED_INSTANCE, TRIP_COMPLETED), which collapses to a bare
// COMPLETED_INSTANCE target.
func (v *Validator) Validate(current Phase, target Phase, actor ActorType) (Decision, error) {
	target = NormalizeTarget(target)

	reject := func(reason RejectReason) (Decision, error) {
		return DecisionCommit, &ValidationError{Reason: reason, From: current, To: target, Actor: actor}
	}

	if !actor.Valid() {
		return reject(ReasonInvalidActor)
	}
	if !target.State.Valid() || !target.Consistent() {
		return reject(ReasonInvalidTarget)
	}
	if target.State == StateActiveExecution && target.Sub == SubNone {
		return reject(ReasonInvalidTarget)
	}

	// Idempotent no-op: re-requesting the current execution phase.
	if current.State == StateActiveExecution && target == current {
		return DecisionNoop, nil
	}

	// Cancellation short-circuits the forward chain: legal from every phase
	// that still has a cancel edge, for every actor type. COMPLETED_INSTANCE
	// has none; a finished trip can only be finalized.
	if target.State == StateCancelled {
		if current.State.Terminal() {
			return reject(ReasonTerminalState)
		}
		if !CanTransition(current, target) {
			return reject(ReasonNotReachable)
		}
		return DecisionCommit, nil
	}

	if current.State.Terminal() {
		return reject(ReasonTerminalState)
	}

	if !CanTransition(current, target) {
		if isBackward(current, target) {
			return reject(ReasonBackwardMove)
		}
		return reject(ReasonNotReachable)
	}

	if !v.actorMay(actor, target) {
		return reject(ReasonActorNotPermitted)
	}

	return DecisionCommit, nil
}

// actorMay applies per-target actor permissions.
func (v *Validator) actorMay(actor ActorType, target Phase) bool {
	switch target.State {
	case StateActivePreTrip:
		// driver assignment: the driver accepting, or the matching system
		return actor == ActorDriver || actor == ActorSystem
	case StateActiveExecution:
		// only the driver advances execution sub-states
		return actor == ActorDriver
	case StateCompletedInstance:
		return actor == ActorDriver || actor == ActorSystem
	case StateCompletedFinal:
		if actor == ActorDriver {
			return v.policy.AllowDriverFinalization
		}
		return actor == ActorPassenger || actor == ActorSystem
	default:
		return true
	}
}

// NormalizeTarget collapses sub-state aliases that legacy callers send for
// non-execution targets, preserving the sub-state-iff-execution invariant.
func NormalizeTarget(target Phase) Phase {
	if target.State == StateCompletedInstance && target.Sub == SubTripCompleted {
		target.Sub = SubNone
	}
	return target
}

// phaseRank orders phases along the forward chain for backward-move detection.
var phaseRank = map[Phase]int{
	{StatePending, SubNone}:                   0,
	{StateActivePreTrip, SubNone}:             1,
	{StateActiveExecution, SubDriverOnTheWay}: 2,
	{StateActiveExecution, SubDriverArrived}:  3,
	{StateActiveExecution, SubTripStarted}:    4,
	{StateActiveExecution, SubTripCompleted}:  5,
	{StateCompletedInstance, SubNone}:         6,
	{StateCompletedFinal, SubNone}:            7,
}

// isBackward reports whether target sits earlier on the forward chain than
// current. Used only to pick a sharper rejection reason.
func isBackward(current, target Phase) bool {
	cur, okCur := phaseRank[current]
	tgt, okTgt := phaseRank[target]
	return okCur && okTgt && tgt < cur
}
