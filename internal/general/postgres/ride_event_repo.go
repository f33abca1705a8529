package postgres

import (
	"context"
	"fmt"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/ports"
)

// RideEventRepo persists ride events using pgx and plain SQL.
type RideEventRepo struct{}

// NewRideEventRepo constructs a new RideEventRepo.
func NewRideEventRepo() ports.RideEventRepository {
	return &RideEventRepo{}
}

// Append inserts a new ride_events row.
func (repo *RideEventRepo) Append(ctx context.Context, event *ride.Event) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if err := event.Validate(); err != nil {
		return err
	}

	data, err := event.DataJSON()
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO ride_events (ride_id, event_type, event_data)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id, created_at
	`,
		event.RideID,
		event.Type.String(),
		string(data),
	).Scan(&event.ID, &event.CreatedAt)
}

// ListByRide returns the newest events for one ride, newest first.
func (repo *RideEventRepo) ListByRide(ctx context.Context, rideID string, limit int) ([]*ride.Event, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := tx.Query(ctx, `
		SELECT id, created_at, ride_id, event_type, event_data
		FROM ride_events
		WHERE ride_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, rideID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ride events: %w", err)
	}
	defer rows.Close()

	var events []*ride.Event
	for rows.Next() {
		var (
			event     ride.Event
			eventType string
		)
		if err := rows.Scan(&event.ID, &event.CreatedAt, &event.RideID, &eventType, &event.Data); err != nil {
			return nil, fmt.Errorf("scan ride event: %w", err)
		}
		event.Type = ride.EventType(eventType)
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}
