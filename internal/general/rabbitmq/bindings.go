package rabbitmq

import (
	"fmt"

	"ride-lifecycle/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

func declareTopology(ch *amqp.Channel) error {
	// 1. Exchanges
	if err := ch.ExchangeDeclare(contracts.ExchangeLifecycleTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangeLifecycleTopic, err)
	}

	// 2. Queues
	queues := []string{
		contracts.QueueRideStatus,
		contracts.QueueRideNotifications,
		contracts.QueueDriverStatus,
		contracts.QueuePaymentRequests,
		contracts.QueueEffectWarnings,
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	// 3. Bindings
	bindings := []struct {
		queue      string
		routingKey string
	}{
		{contracts.QueueRideStatus, contracts.RouteRideStatusPrefix + "*"},
		{contracts.QueueRideNotifications, contracts.RouteNotifyPrefix + "*"},
		{contracts.QueueDriverStatus, contracts.RouteDriverStatusPrefix + "*"},
		{contracts.QueuePaymentRequests, contracts.RoutePaymentDebit},
		{contracts.QueueEffectWarnings, contracts.RouteEffectWarning},
	}

	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, contracts.ExchangeLifecycleTopic, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, contracts.ExchangeLifecycleTopic, err)
		}
	}

	return nil
}
