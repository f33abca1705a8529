package ports

import (
	"context"
	"time"

	"ride-lifecycle/internal/domain/ride"
)

// ----- DTOs for the Lifecycle Service -----

// TransitionOutcome labels the three results a transition request can have.
type TransitionOutcome string

const (
	OutcomeCommitted TransitionOutcome = "COMMITTED"
	OutcomeRejected  TransitionOutcome = "REJECTED"
	OutcomeConflict  TransitionOutcome = "CONFLICT"
)

// TransitionInput is the validated input for a single transition request.
type TransitionInput struct {
	RideID         string
	TargetState    ride.State
	TargetSubState ride.SubState
	ActorType      ride.ActorType
	ActorID        string
	// DriverID names the driver being assigned when the target is
	// ACTIVE_PRE_TRIP. Defaults to ActorID for driver actors.
	DriverID string
	// IdempotencyKey suppresses duplicate delivery. Empty means derive one
	// from (rideID, target).
	IdempotencyKey string
	// Reason is recorded on cancellations, ignored otherwise.
	Reason string
}

// TransitionResult is returned by LifecycleService.ExecuteTransition.
type TransitionResult struct {
	Outcome      TransitionOutcome `json:"outcome"`
	RideID       string            `json:"ride_id"`
	State        ride.State        `json:"state"`
	SubState     ride.SubState     `json:"sub_state,omitempty"`
	LegacyStatus string            `json:"legacy_status"`
	Version      int               `json:"version"`
	// Replayed is true when an idempotency receipt answered the request
	// without touching the ride.
	Replayed bool `json:"replayed,omitempty"`
	// Noop is true when the target equaled the current phase.
	Noop bool `json:"noop,omitempty"`
}

// AdvanceTaskInput is the validated input for advancing one errand task.
type AdvanceTaskInput struct {
	RideID    string
	TaskIndex int
	ActorType ride.ActorType
	ActorID   string
}

// AdvanceTaskResult is returned by LifecycleService.AdvanceErrandTask.
type AdvanceTaskResult struct {
	RideID    string           `json:"ride_id"`
	TaskIndex int              `json:"task_index"`
	TaskState ride.TaskState   `json:"task_state"`
	Summary   ride.TaskSummary `json:"summary"`
	// RideCompleted is true when this advance finished the last task and the
	// ride-level completion transition was committed in cascade.
	RideCompleted bool `json:"ride_completed,omitempty"`
}

// CreateRideInput is the validated input required to create a ride.
type CreateRideInput struct {
	PassengerID   string
	ServiceType   ride.ServiceType
	Timing        ride.Timing
	PaymentMethod ride.PaymentMethod
	EstimatedCost int64
	TaskTitles    []string
	// SeriesID and LegsTotal link recurring / round-trip bookings. Zero
	// values mean a standalone single-leg ride.
	SeriesID  string
	LegsTotal int
}

// CreateRideResult is returned by LifecycleService.CreateRide.
type CreateRideResult struct {
	RideID       string    `json:"ride_id"`
	State        string    `json:"state"`
	LegacyStatus string    `json:"legacy_status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ----- Lifecycle Service Interface -----

// LifecycleService exposes the boundary for the ride lifecycle service.
type LifecycleService interface {
	CreateRide(ctx context.Context, in CreateRideInput) (CreateRideResult, error)
	GetRide(ctx context.Context, rideID string) (*ride.Ride, error)
	ExecuteTransition(ctx context.Context, in TransitionInput) (TransitionResult, error)
	AdvanceErrandTask(ctx context.Context, in AdvanceTaskInput) (AdvanceTaskResult, error)
	RunBackgroundConsumers(ctx context.Context)
}

// ----- Side-effect collaborators -----

// PaymentService settles completed ride instances against passenger balances.
type PaymentService interface {
	// Debit deducts amount (minor units) from the passenger's balance.
	Debit(ctx context.Context, passengerID, rideID string, amount int64) error
}

// Notifier delivers a status-change notification to the counterparty.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is one counterparty-facing status message.
type Notification struct {
	RideID        string         `json:"ride_id"`
	Recipient     string         `json:"recipient"`
	RecipientRole ride.ActorType `json:"recipient_role"`
	State         ride.State     `json:"state"`
	SubState      ride.SubState  `json:"sub_state,omitempty"`
	LegacyStatus  string         `json:"legacy_status"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
