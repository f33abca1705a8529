package ride

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how a ride is settled.
type PaymentMethod string

const (
	PayAccountBalance PaymentMethod = "ACCOUNT_BALANCE"
	PayCash           PaymentMethod = "CASH"
)

var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// ParsePaymentMethod converts a raw string into a PaymentMethod.
func ParsePaymentMethod(in string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToUpper(strings.TrimSpace(in))); m {
	case PayAccountBalance, PayCash:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, in)
	}
}

// PaymentStatus tracks settlement of a single ride instance.
type PaymentStatus string

const (
	PaymentPending     PaymentStatus = "PENDING"
	PaymentDeducted    PaymentStatus = "DEDUCTED"
	PaymentFailed      PaymentStatus = "FAILED"
	PaymentNotRequired PaymentStatus = "NOT_REQUIRED"
)

var (
	ErrPassengerRequired = errors.New("passenger id is required")
	ErrErrandNeedsTasks  = errors.New("errand ride requires at least one task")
	ErrTasksOnNonErrand  = errors.New("only errand rides carry a task list")
	ErrNotFound          = errors.New("ride not found")
	ErrConflict          = errors.New("ride transition conflict")
)

// Ride is the aggregate root corresponding to the `rides` table. The
// canonical lifecycle lives in (State, SubState); LegacyStatus is a pure
// projection written in the same commit and never read by transition logic.
type Ride struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int // optimistic concurrency guard; bumps on every commit

	// Actors
	PassengerID string
	DriverID    *string // nil until assignment

	// Classification
	ServiceType ServiceType
	Timing      Timing

	// Canonical lifecycle
	State    State
	SubState SubState

	// Compatibility projection, always ProjectLegacyStatus(State, SubState)
	LegacyStatus string

	// Cancellation metadata
	CancelledBy        ActorType // empty unless cancelled
	CancellationReason *string

	// Lifecycle timestamps
	AcceptedAt  *time.Time
	ArrivedAt   *time.Time
	StartedAt   *time.Time
	EndedAt     *time.Time
	FinalizedAt *time.Time
	CancelledAt *time.Time

	// Settlement
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	EstimatedCost int64 // minor currency units

	// Round-trip / recurring linkage. Never written by the transition
	// executor; carried so series bookkeeping survives every commit.
	SeriesID      *string
	LegsTotal     int
	LegsCompleted int

	// Errand task list, non-empty only when ServiceType == ERRAND
	Tasks []ErrandTask
}

// NewRide creates a ride in PENDING on behalf of a passenger request.
// taskTitles must be non-empty for errand rides and empty otherwise.
func NewRide(passengerID string, serviceType ServiceType, timing Timing, payment PaymentMethod, estimatedCost int64, taskTitles []string) (*Ride, error) {
	if passengerID = strings.TrimSpace(passengerID); passengerID == "" {
		return nil, ErrPassengerRequired
	}
	if !serviceType.Valid() {
		return nil, ErrInvalidServiceType
	}
	if !timing.Valid() {
		return nil, ErrInvalidTiming
	}
	if serviceType == ServiceErrand && len(taskTitles) == 0 {
		return nil, ErrErrandNeedsTasks
	}
	if serviceType != ServiceErrand && len(taskTitles) > 0 {
		return nil, ErrTasksOnNonErrand
	}

	paymentStatus := PaymentPending
	if payment != PayAccountBalance {
		paymentStatus = PaymentNotRequired
	}

	now := time.Now().UTC()
	ride := &Ride{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
		PassengerID:   passengerID,
		ServiceType:   serviceType,
		Timing:        timing,
		State:         StatePending,
		SubState:      SubNone,
		LegacyStatus:  ProjectLegacyStatus(StatePending, SubNone),
		PaymentMethod: payment,
		PaymentStatus: paymentStatus,
		EstimatedCost: estimatedCost,
		LegsTotal:     1,
		Tasks:         NewErrandTasks(taskTitles),
	}
	return ride, nil
}

// Phase returns the ride's current (state, sub-state) pair.
func (ride *Ride) Phase() Phase {
	return Phase{State: ride.State, Sub: ride.SubState}
}

// Terminal reports whether the ride admits no further transitions.
func (ride *Ride) Terminal() bool {
	return ride.State.Terminal()
}

// CheckInvariants verifies the aggregate-level invariants that must hold
// after every commit. Used by tests and as a repository write guard.
func (ride *Ride) CheckInvariants() error {
	if !ride.Phase().Consistent() {
		return fmt.Errorf("sub-state %q inconsistent with state %q", ride.SubState, ride.State)
	}
	if want := ProjectLegacyStatus(ride.State, ride.SubState); ride.LegacyStatus != want {
		return fmt.Errorf("legacy status %q diverged from projection %q", ride.LegacyStatus, want)
	}
	if ride.State != StatePending && ride.State != StateCancelled {
		if ride.DriverID == nil || *ride.DriverID == "" {
			return fmt.Errorf("state %q requires an assigned driver", ride.State)
		}
	}
	return nil
}

// LegDeduction is the balance amount debited for one completed instance of a
// possibly multi-leg ride, in minor units.
func (ride *Ride) LegDeduction() int64 {
	legs := ride.LegsTotal
	if legs < 1 {
		legs = 1
	}
	return ride.EstimatedCost / int64(legs)
}

// IdempotencyKeyFor derives the duplicate-suppression key for a transition
// request, from (rideID, targetState, targetSubState).
func IdempotencyKeyFor(rideID string, target Phase) string {
	if target.Sub == SubNone {
		return rideID + ":" + target.State.String()
	}
	return rideID + ":" + target.State.String() + ":" + target.Sub.String()
}
