package service

import (
	"context"
	"errors"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/ports"
)

// ExecuteTransition is the single entry point for every state change.
// It validates against the persisted state under a row lock, commits the new
// phase together with its audit event and idempotency receipt, and schedules
// post-commit side effects. Duplicate requests are answered from the receipt.
func (s *lifecycleService) ExecuteTransition(ctx context.Context, in ports.TransitionInput) (ports.TransitionResult, error) {
	target := ride.NormalizeTarget(ride.Phase{State: in.TargetState, Sub: in.TargetSubState})

	key := in.IdempotencyKey
	if key == "" {
		key = ride.IdempotencyKeyFor(in.RideID, target)
	}

	var (
		result  ports.TransitionResult
		effects *effectSet
	)

	txErr := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		// replay check first: a receipt means this exact request already
		// committed, so answer from the record without touching the ride
		receipt, err := s.receipts.Get(ctx, key)
		if err != nil {
			return err
		}
		if receipt != nil {
			result = ports.TransitionResult{
				Outcome:      ports.OutcomeCommitted,
				RideID:       receipt.RideID,
				State:        receipt.State,
				SubState:     receipt.SubState,
				LegacyStatus: receipt.LegacyStatus,
				Version:      receipt.Version,
				Replayed:     true,
			}
			return nil
		}

		rd, err := s.rideRepo.GetForUpdate(ctx, in.RideID)
		if err != nil {
			return err
		}

		decision, err := s.validator.Validate(rd.Phase(), target, in.ActorType)
		if err != nil {
			result = resultFor(ports.OutcomeRejected, rd)
			return err
		}

		if decision == ride.DecisionNoop {
			result = resultFor(ports.OutcomeCommitted, rd)
			result.Noop = true
			return nil
		}

		// an errand instance only completes once its task list is worked off
		if target.State == ride.StateCompletedInstance && rd.ServiceType == ride.ServiceErrand {
			if ride.SummarizeTasks(rd.Tasks).RemainingCount > 0 {
				result = resultFor(ports.OutcomeRejected, rd)
				return &ride.ValidationError{
					Reason: ride.ReasonTasksIncomplete,
					From:   rd.Phase(),
					To:     target,
					Actor:  in.ActorType,
				}
			}
		}

		from := rd.Phase()
		now := time.Now().UTC()
		// snapshot before mutating: a guard miss must report the state the
		// loser actually read, not the phase it failed to write
		loserResult := resultFor(ports.OutcomeConflict, rd)
		if err := applyTransition(rd, target, in, now); err != nil {
			result = resultFor(ports.OutcomeRejected, rd)
			return err
		}

		committed, err := s.rideRepo.UpdateTransition(ctx, rd, rd.Version)
		if err != nil {
			return err
		}
		if !committed {
			result = loserResult
			return ride.ErrConflict
		}

		event, err := ride.NewTransitionEvent(rd.ID, from, target, in.ActorType, in.ActorID, key)
		if err != nil {
			return err
		}
		if err := s.eventRepo.Append(ctx, event); err != nil {
			return err
		}

		if err := s.receipts.Put(ctx, &ports.TransitionReceipt{
			Key:          key,
			RideID:       rd.ID,
			State:        rd.State,
			SubState:     rd.SubState,
			LegacyStatus: rd.LegacyStatus,
			Version:      rd.Version,
			CommittedAt:  now,
		}); err != nil {
			return err
		}

		result = resultFor(ports.OutcomeCommitted, rd)
		effects = s.collectEffects(rd, from, target, in, now)
		return nil
	})

	if txErr != nil {
		var verr *ride.ValidationError
		switch {
		case errors.As(txErr, &verr):
			result.Outcome = ports.OutcomeRejected
			s.logger.Info(ctx, "transition_rejected", "Transition rejected by validator",
				map[string]any{"ride_id": in.RideID, "reason": string(verr.Reason)})
		case errors.Is(txErr, ride.ErrConflict):
			result.Outcome = ports.OutcomeConflict
			s.logger.Info(ctx, "transition_conflict", "Concurrent transition won the version guard",
				map[string]any{"ride_id": in.RideID})
		case errors.Is(txErr, ErrDriverRequired):
			result.Outcome = ports.OutcomeRejected
		}
		return result, txErr
	}

	if result.Replayed {
		s.logger.Debug(ctx, "transition_replayed", "Answered transition from idempotency receipt",
			map[string]any{"ride_id": in.RideID, "idempotency_key": key})
		return result, nil
	}

	s.logger.Info(ctx, "transition_committed", "Transition committed", map[string]any{
		"ride_id":  in.RideID,
		"to_state": result.State.String(),
		"to_sub":   result.SubState.String(),
		"version":  result.Version,
		"noop":     result.Noop,
	})

	// side effects run after the commit; failures never undo the transition
	if effects != nil {
		go s.runEffects(context.WithoutCancel(ctx), effects)
	}

	return result, nil
}

// resultFor snapshots the ride's committed identity into a result.
func resultFor(outcome ports.TransitionOutcome, rd *ride.Ride) ports.TransitionResult {
	return ports.TransitionResult{
		Outcome:      outcome,
		RideID:       rd.ID,
		State:        rd.State,
		SubState:     rd.SubState,
		LegacyStatus: rd.LegacyStatus,
		Version:      rd.Version,
	}
}

// applyTransition mutates the aggregate for the validated target: canonical
// phase, legacy projection, timeline stamp, and per-target bookkeeping.
func applyTransition(rd *ride.Ride, target ride.Phase, in ports.TransitionInput, now time.Time) error {
	switch target.State {
	case ride.StateActivePreTrip:
		driverID := in.DriverID
		if driverID == "" && in.ActorType.IsDriver() {
			driverID = in.ActorID
		}
		if driverID == "" {
			return ErrDriverRequired
		}
		rd.DriverID = &driverID
		rd.AcceptedAt = &now

	case ride.StateActiveExecution:
		switch target.Sub {
		case ride.SubDriverArrived:
			rd.ArrivedAt = &now
		case ride.SubTripStarted:
			rd.StartedAt = &now
		}

	case ride.StateCompletedInstance:
		rd.EndedAt = &now
		rd.LegsCompleted++

	case ride.StateCompletedFinal:
		rd.FinalizedAt = &now

	case ride.StateCancelled:
		rd.CancelledAt = &now
		rd.CancelledBy = in.ActorType
		if in.Reason != "" {
			reason := in.Reason
			rd.CancellationReason = &reason
		}
		ride.CancelOpenTasks(rd.Tasks, in.ActorID, in.ActorType, now)
	}

	rd.State = target.State
	rd.SubState = target.Sub
	rd.LegacyStatus = ride.ProjectLegacyStatus(target.State, target.Sub)
	rd.UpdatedAt = now
	return nil
}
