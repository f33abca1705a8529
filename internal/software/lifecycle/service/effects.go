package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/contracts"
	"ride-lifecycle/internal/ports"
)

// debitIntent is a pending balance deduction for one completed instance.
type debitIntent struct {
	passengerID string
	amount      int64
}

// effectSet is everything scheduled to run after a transition commits.
// Effects are independent: one failing never blocks the others, and no
// failure ever rolls the transition back.
type effectSet struct {
	rideID        string
	status        contracts.RideStatusMessage
	acquireDriver string
	releaseDriver string
	debit         *debitIntent
	notifications []ports.Notification
}

// collectEffects decides, inside the transaction, which side effects the
// committed transition requires. Execution happens post-commit.
func (s *lifecycleService) collectEffects(rd *ride.Ride, from, target ride.Phase, in ports.TransitionInput, now time.Time) *effectSet {
	set := &effectSet{
		rideID: rd.ID,
		status: contracts.RideStatusMessage{
			RideID:       rd.ID,
			State:        rd.State.String(),
			SubState:     rd.SubState.String(),
			LegacyStatus: rd.LegacyStatus,
			Version:      rd.Version,
			ActorType:    in.ActorType.String(),
			ActorID:      in.ActorID,
			Timestamp:    now,
			Envelope: contracts.Envelope{
				Producer: "lifecycle-service",
				SentAt:   now,
			},
		},
	}

	// assignment takes the driver off the availability pool
	if target.State == ride.StateActivePreTrip && rd.DriverID != nil {
		set.acquireDriver = *rd.DriverID
	}

	// the trip ending frees the driver for new work
	if target.State == ride.StateCancelled || target.State == ride.StateCompletedInstance {
		if rd.DriverID != nil {
			set.releaseDriver = *rd.DriverID
		}
	}

	// settle the instance exactly once; the payment status check replays safely
	if target.State == ride.StateCompletedInstance &&
		rd.PaymentMethod == ride.PayAccountBalance &&
		rd.PaymentStatus == ride.PaymentPending {
		set.debit = &debitIntent{passengerID: rd.PassengerID, amount: rd.LegDeduction()}
	}

	// notify the counterparty of whoever acted; SYSTEM actions notify both
	notify := func(recipient string, role ride.ActorType) {
		if recipient == "" {
			return
		}
		set.notifications = append(set.notifications, ports.Notification{
			RideID:        rd.ID,
			Recipient:     recipient,
			RecipientRole: role,
			State:         rd.State,
			SubState:      rd.SubState,
			LegacyStatus:  rd.LegacyStatus,
			OccurredAt:    now,
		})
	}

	driverID := ""
	if rd.DriverID != nil {
		driverID = *rd.DriverID
	}
	switch {
	case in.ActorType.IsPassenger():
		notify(driverID, ride.ActorDriver)
	case in.ActorType.IsDriver():
		notify(rd.PassengerID, ride.ActorPassenger)
	default:
		notify(rd.PassengerID, ride.ActorPassenger)
		notify(driverID, ride.ActorDriver)
	}

	return set
}

// runEffects executes a committed transition's side effects with per-effect
// failure isolation. Failures are logged and reported on the warning queue.
func (s *lifecycleService) runEffects(ctx context.Context, set *effectSet) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	ctx = s.logger.WithRideID(ctx, set.rideID)

	s.publishStatus(ctx, set)

	if set.acquireDriver != "" {
		if err := s.availability.Acquire(ctx, set.acquireDriver); err != nil {
			s.warn(ctx, set.rideID, "availability_acquire", err)
		}
	}

	if set.releaseDriver != "" {
		if err := s.availability.Release(ctx, set.releaseDriver); err != nil {
			s.warn(ctx, set.rideID, "availability_release", err)
		}
	}

	if set.debit != nil {
		s.settleDebit(ctx, set)
	}

	for _, n := range set.notifications {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.warn(ctx, set.rideID, "notification", err)
		}
	}
}

// publishStatus emits the ride.status.{state} message for downstream consumers.
func (s *lifecycleService) publishStatus(ctx context.Context, set *effectSet) {
	body, err := json.Marshal(set.status)
	if err != nil {
		s.warn(ctx, set.rideID, "status_publish", err)
		return
	}

	routingKey := contracts.RouteRideStatusPrefix + strings.ToLower(set.status.State)
	if err := s.pub.Publish(contracts.ExchangeLifecycleTopic, routingKey, body); err != nil {
		s.warn(ctx, set.rideID, "status_publish", err)
	}
}

// settleDebit deducts the instance's share of the estimated cost. The payment
// status row guards against double deduction across retries and replays.
func (s *lifecycleService) settleDebit(ctx context.Context, set *effectSet) {
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		rd, err := s.rideRepo.GetForUpdate(ctx, set.rideID)
		if err != nil {
			return err
		}
		if rd.PaymentStatus != ride.PaymentPending {
			return nil
		}

		if err := s.payments.Debit(ctx, set.debit.passengerID, set.rideID, set.debit.amount); err != nil {
			return err
		}
		return s.rideRepo.UpdatePaymentStatus(ctx, set.rideID, ride.PaymentDeducted, time.Now().UTC())
	})
	if err != nil {
		s.warn(ctx, set.rideID, "payment_debit", err)
		return
	}

	s.logger.Info(ctx, "payment_debited", "Instance settled against passenger balance",
		map[string]any{"ride_id": set.rideID, "amount": set.debit.amount})
}

// warn logs a failed effect and reports it on the warning queue. The warning
// path is best-effort; its own failure is only logged.
func (s *lifecycleService) warn(ctx context.Context, rideID, effect string, cause error) {
	s.logger.Error(ctx, "effect_failed", "Post-commit side effect failed", cause,
		map[string]any{"ride_id": rideID, "effect": effect})

	msg := contracts.EffectWarningMessage{
		RideID:     rideID,
		Effect:     effect,
		Error:      cause.Error(),
		OccurredAt: time.Now().UTC(),
		Envelope: contracts.Envelope{
			Producer: "lifecycle-service",
			SentAt:   time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.pub.Publish(contracts.ExchangeLifecycleTopic, contracts.RouteEffectWarning, body); err != nil {
		s.logger.Error(ctx, "warning_publish_failed", "Failed to publish effect warning", err,
			map[string]any{"ride_id": rideID, "effect": effect})
	}
}
