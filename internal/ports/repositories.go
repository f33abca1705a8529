package ports

import (
	"context"
	"time"

	"ride-lifecycle/internal/domain/ride"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RideRepository defines the methods for managing ride data.
type RideRepository interface {
	CreateRide(ctx context.Context, r *ride.Ride) error
	GetByID(ctx context.Context, id string) (*ride.Ride, error)
	// GetForUpdate loads a ride under a row lock; must run inside a UnitOfWork tx.
	GetForUpdate(ctx context.Context, id string) (*ride.Ride, error)
	// UpdateTransition writes the new phase, projection, timeline stamp and
	// task list in one statement guarded by expectedVersion. Returns false
	// when the guard misses (another writer committed first).
	UpdateTransition(ctx context.Context, r *ride.Ride, expectedVersion int) (bool, error)
	UpdatePaymentStatus(ctx context.Context, rideID string, status ride.PaymentStatus, ts time.Time) error
}

// RideEventRepository defines the methods for managing ride event data.
type RideEventRepository interface {
	Append(ctx context.Context, e *ride.Event) error
	ListByRide(ctx context.Context, rideID string, limit int) ([]*ride.Event, error)
}

// TransitionReceipt is the stored record of a committed transition request,
// keyed by its idempotency key. Replays return the recorded outcome.
type TransitionReceipt struct {
	Key          string
	RideID       string
	State        ride.State
	SubState     ride.SubState
	LegacyStatus string
	Version      int
	CommittedAt  time.Time
}

// TransitionReceiptRepository stores idempotency receipts. Get and Put run in
// the same transaction as the state commit so a receipt exists iff the
// transition it records was committed.
type TransitionReceiptRepository interface {
	// Get returns (nil, nil) when no receipt exists for key.
	Get(ctx context.Context, key string) (*TransitionReceipt, error)
	Put(ctx context.Context, receipt *TransitionReceipt) error
}

// AvailabilityStore tracks which drivers are schedulable. Acquire runs when a
// driver is assigned, Release when the trip ends or the ride is cancelled.
type AvailabilityStore interface {
	Acquire(ctx context.Context, driverID string) error
	Release(ctx context.Context, driverID string) error
}
