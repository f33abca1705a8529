package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/contracts"
	"ride-lifecycle/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RunBackgroundConsumers starts the background consumers of the lifecycle
// service. Driver apps publish progress over the bus; each message becomes a
// transition request through the same executor the HTTP surface uses.
func (s *lifecycleService) RunBackgroundConsumers(ctx context.Context) {
	s.startDriverStatusConsumer(ctx)
}

// startDriverStatusConsumer consumes driver status messages and executes them.
func (s *lifecycleService) startDriverStatusConsumer(ctx context.Context) {
	executor := NewRetryingExecutor(s, s.logger)

	go func() {
		err := s.rabbitmq.Consume(
			ctx,
			contracts.QueueDriverStatus,
			"lifecycle-driver-status",
			20,
			func(msgCtx context.Context, d amqp.Delivery) error {
				var msg contracts.DriverStatusMessage
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					s.logger.Error(ctx, "driver_status_decode_failed",
						"Failed to decode driver status message", err,
						map[string]any{"size": len(d.Body)})
					return fmt.Errorf("decode: %w", err)
				}
				if msg.RideID == "" || msg.DriverID == "" {
					return nil
				}

				state, err := ride.ParseState(msg.TargetState)
				if err != nil {
					// unknown target, ack and drop to avoid a poison loop
					return nil
				}
				sub, err := ride.ParseSubState(msg.TargetSubState)
				if err != nil {
					return nil
				}

				_, err = executor.ExecuteTransition(msgCtx, ports.TransitionInput{
					RideID:         msg.RideID,
					TargetState:    state,
					TargetSubState: sub,
					ActorType:      ride.ActorDriver,
					ActorID:        msg.DriverID,
					IdempotencyKey: msg.IdempotencyKey,
				})
				if err != nil {
					// rejections and conflicts are answered states, not failures;
					// the driver app refreshes on its next poll
					var verr *ride.ValidationError
					if errors.As(err, &verr) || errors.Is(err, ride.ErrConflict) || errors.Is(err, ride.ErrNotFound) {
						return nil
					}
					return err
				}
				return nil
			},
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(ctx, "driver_status_consume_failed",
				"Failed to consume driver status messages", err,
				map[string]any{"queue": contracts.QueueDriverStatus})
		}
	}()
}
