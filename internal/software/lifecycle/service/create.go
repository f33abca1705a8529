package service

import (
	"context"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/ports"
)

// CreateRide creates a ride in PENDING and records the RIDE_REQUESTED event.
func (s *lifecycleService) CreateRide(ctx context.Context, in ports.CreateRideInput) (ports.CreateRideResult, error) {
	rd, err := ride.NewRide(in.PassengerID, in.ServiceType, in.Timing, in.PaymentMethod, in.EstimatedCost, in.TaskTitles)
	if err != nil {
		return ports.CreateRideResult{}, err
	}
	if in.SeriesID != "" {
		seriesID := in.SeriesID
		rd.SeriesID = &seriesID
	}
	if in.LegsTotal > 1 {
		rd.LegsTotal = in.LegsTotal
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.rideRepo.CreateRide(ctx, rd); err != nil {
			return err
		}

		event, err := ride.NewEvent(rd.ID, ride.EventRideRequested, map[string]any{
			"passenger_id":   rd.PassengerID,
			"service_type":   rd.ServiceType.String(),
			"timing":         rd.Timing.String(),
			"payment_method": string(rd.PaymentMethod),
			"estimated_cost": rd.EstimatedCost,
			"task_count":     len(rd.Tasks),
		})
		if err != nil {
			return err
		}
		return s.eventRepo.Append(ctx, event)
	})
	if err != nil {
		return ports.CreateRideResult{}, err
	}

	s.logger.Info(ctx, "ride_requested", "Ride created", map[string]any{
		"ride_id":      rd.ID,
		"passenger_id": rd.PassengerID,
		"service_type": rd.ServiceType.String(),
	})

	return ports.CreateRideResult{
		RideID:       rd.ID,
		State:        rd.State.String(),
		LegacyStatus: rd.LegacyStatus,
		CreatedAt:    rd.CreatedAt,
	}, nil
}

// GetRide loads one ride by id.
func (s *lifecycleService) GetRide(ctx context.Context, rideID string) (*ride.Ride, error) {
	var rd *ride.Ride
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		rd, err = s.rideRepo.GetByID(ctx, rideID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rd, nil
}
