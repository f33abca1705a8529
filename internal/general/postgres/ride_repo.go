package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/ports"

	"github.com/jackc/pgx/v5"
)

// RideRepo persists rides using pgx and plain SQL.
type RideRepo struct{}

// NewRideRepo constructs a new RideRepo.
func NewRideRepo() ports.RideRepository {
	return &RideRepo{}
}

const rideColumns = `
	id, created_at, updated_at, version, passenger_id, driver_id,
	service_type, timing, state, sub_state, legacy_status,
	cancelled_by, cancellation_reason,
	accepted_at, arrived_at, started_at, ended_at, finalized_at, cancelled_at,
	payment_method, payment_status, estimated_cost,
	series_id, legs_total, legs_completed, tasks`

// CreateRide inserts a new ride row. The initial RIDE_REQUESTED event is
// appended separately by the service so every audit write goes through one path.
func (repo *RideRepo) CreateRide(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tasks, err := json.Marshal(r.Tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rides (
			id, created_at, updated_at, version, passenger_id,
			service_type, timing, state, sub_state, legacy_status,
			payment_method, payment_status, estimated_cost,
			series_id, legs_total, legs_completed, tasks
		)
		VALUES ($1, $2, $3, 0, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0, $15::jsonb)
	`,
		r.ID, r.CreatedAt, r.UpdatedAt, r.PassengerID,
		r.ServiceType.String(), r.Timing.String(),
		r.State.String(), r.SubState.String(), r.LegacyStatus,
		string(r.PaymentMethod), string(r.PaymentStatus), r.EstimatedCost,
		r.SeriesID, r.LegsTotal, string(tasks),
	)
	return err
}

// GetByID fetches a ride by primary key.
func (repo *RideRepo) GetByID(ctx context.Context, id string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanRide(tx.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id))
}

// GetForUpdate fetches a ride under FOR UPDATE so concurrent transitions for
// the same ride serialize at the row.
func (repo *RideRepo) GetForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanRide(tx.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1 FOR UPDATE`, id))
}

// UpdateTransition writes the new phase, projection, version bump, timeline
// stamp, cancellation metadata and task list in a single statement guarded by
// expectedVersion. A false return means the guard missed.
func (repo *RideRepo) UpdateTransition(ctx context.Context, r *ride.Ride, expectedVersion int) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	if err := r.CheckInvariants(); err != nil {
		return false, fmt.Errorf("refusing inconsistent write: %w", err)
	}

	tasks, err := json.Marshal(r.Tasks)
	if err != nil {
		return false, fmt.Errorf("encode tasks: %w", err)
	}

	var cancelledBy *string
	if r.CancelledBy != "" {
		s := r.CancelledBy.String()
		cancelledBy = &s
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET state = $1,
		    sub_state = $2,
		    legacy_status = $3,
		    driver_id = $4,
		    cancelled_by = $5,
		    cancellation_reason = $6,
		    accepted_at = $7,
		    arrived_at = $8,
		    started_at = $9,
		    ended_at = $10,
		    finalized_at = $11,
		    cancelled_at = $12,
		    legs_completed = $13,
		    tasks = $14::jsonb,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $15 AND version = $16
	`,
		r.State.String(), r.SubState.String(), r.LegacyStatus,
		r.DriverID, cancelledBy, r.CancellationReason,
		r.AcceptedAt, r.ArrivedAt, r.StartedAt, r.EndedAt, r.FinalizedAt, r.CancelledAt,
		r.LegsCompleted, string(tasks),
		r.ID, expectedVersion,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	r.Version = expectedVersion + 1
	return true, nil
}

// UpdatePaymentStatus records the settlement outcome for a ride instance.
func (repo *RideRepo) UpdatePaymentStatus(ctx context.Context, rideID string, status ride.PaymentStatus, ts time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET payment_status = $1, updated_at = $2
		WHERE id = $3
	`, string(status), ts, rideID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ride.ErrNotFound
	}
	return nil
}

// scanRide maps one rides row onto the aggregate.
func scanRide(row pgx.Row) (*ride.Ride, error) {
	var (
		out                             ride.Ride
		serviceType, timing, state, sub string
		paymentMethod, paymentStatus    string
		cancelledBy                     *string
		tasks                           []byte
	)

	err := row.Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt, &out.Version, &out.PassengerID, &out.DriverID,
		&serviceType, &timing, &state, &sub, &out.LegacyStatus,
		&cancelledBy, &out.CancellationReason,
		&out.AcceptedAt, &out.ArrivedAt, &out.StartedAt, &out.EndedAt, &out.FinalizedAt, &out.CancelledAt,
		&paymentMethod, &paymentStatus, &out.EstimatedCost,
		&out.SeriesID, &out.LegsTotal, &out.LegsCompleted, &tasks,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ride.ErrNotFound
		}
		return nil, err
	}

	out.ServiceType = ride.ServiceType(serviceType)
	out.Timing = ride.Timing(timing)
	out.State = ride.State(state)
	out.SubState = ride.SubState(sub)
	out.PaymentMethod = ride.PaymentMethod(paymentMethod)
	out.PaymentStatus = ride.PaymentStatus(paymentStatus)
	if cancelledBy != nil {
		out.CancelledBy = ride.ActorType(*cancelledBy)
	}
	if len(tasks) > 0 {
		if err := json.Unmarshal(tasks, &out.Tasks); err != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
	}

	return &out, nil
}
