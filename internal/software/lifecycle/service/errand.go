package service

import (
	"context"
	"errors"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/ports"
)

var (
	// ErrNotErrandRide is returned when a task operation targets a ride
	// without a task list.
	ErrNotErrandRide = errors.New("ride is not an errand ride")
	// ErrRideNotActive is returned when tasks are advanced outside execution.
	ErrRideNotActive = errors.New("errand tasks can only advance while the ride is executing")
)

// AdvanceErrandTask moves the active task one step forward. When the advance
// completes the last open task, the ride-level completion transition runs in
// cascade through ExecuteTransition, so it carries the same validation,
// versioning and side effects as any direct request.
func (s *lifecycleService) AdvanceErrandTask(ctx context.Context, in ports.AdvanceTaskInput) (ports.AdvanceTaskResult, error) {
	var (
		result      ports.AdvanceTaskResult
		allFinished bool
	)

	txErr := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		rd, err := s.rideRepo.GetForUpdate(ctx, in.RideID)
		if err != nil {
			return err
		}
		if rd.ServiceType != ride.ServiceErrand {
			return ErrNotErrandRide
		}
		if rd.State != ride.StateActiveExecution {
			return ErrRideNotActive
		}

		now := time.Now().UTC()
		summary, err := ride.AdvanceTask(rd.Tasks, in.TaskIndex, in.ActorID, in.ActorType, now)
		if err != nil {
			return err
		}

		rd.UpdatedAt = now
		committed, err := s.rideRepo.UpdateTransition(ctx, rd, rd.Version)
		if err != nil {
			return err
		}
		if !committed {
			return ride.ErrConflict
		}

		event, err := ride.NewEvent(rd.ID, ride.EventTaskAdvanced, map[string]any{
			"task_index": in.TaskIndex,
			"task_state": rd.Tasks[in.TaskIndex].State.String(),
			"actor_type": in.ActorType.String(),
			"actor_id":   in.ActorID,
			"remaining":  summary.RemainingCount,
		})
		if err != nil {
			return err
		}
		if err := s.eventRepo.Append(ctx, event); err != nil {
			return err
		}

		result = ports.AdvanceTaskResult{
			RideID:    rd.ID,
			TaskIndex: in.TaskIndex,
			TaskState: rd.Tasks[in.TaskIndex].State,
			Summary:   summary,
		}
		allFinished = summary.RemainingCount == 0
		return nil
	})
	if txErr != nil {
		return result, txErr
	}

	s.logger.Info(ctx, "task_advanced", "Errand task advanced", map[string]any{
		"ride_id":    in.RideID,
		"task_index": in.TaskIndex,
		"task_state": result.TaskState.String(),
		"remaining":  result.Summary.RemainingCount,
	})

	if !allFinished {
		return result, nil
	}

	// last task closed: complete the ride through the normal executor path
	completion, err := s.ExecuteTransition(ctx, ports.TransitionInput{
		RideID:         in.RideID,
		TargetState:    ride.StateCompletedInstance,
		TargetSubState: ride.SubNone,
		ActorType:      in.ActorType,
		ActorID:        in.ActorID,
	})
	if err != nil {
		// the advance itself committed; surface the cascade failure so the
		// caller retries completion (idempotent via the derived key)
		return result, err
	}

	result.RideCompleted = completion.Outcome == ports.OutcomeCommitted
	return result, nil
}
