package rabbitmq

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ride-lifecycle/internal/general/contracts"
	"ride-lifecycle/internal/ports"
)

// Notifier delivers counterparty notifications over the lifecycle exchange.
type Notifier struct {
	publisher *MQPublisher
	producer  string
}

// NewNotifier constructs a Notifier bound to the given publisher.
func NewNotifier(publisher *MQPublisher, producer string) *Notifier {
	return &Notifier{publisher: publisher, producer: producer}
}

// Notify publishes one NotificationMessage routed by recipient role.
func (n *Notifier) Notify(ctx context.Context, notification ports.Notification) error {
	msg := contracts.NotificationMessage{
		RideID:        notification.RideID,
		Recipient:     notification.Recipient,
		RecipientRole: notification.RecipientRole.String(),
		State:         notification.State.String(),
		SubState:      notification.SubState.String(),
		LegacyStatus:  notification.LegacyStatus,
		OccurredAt:    notification.OccurredAt,
		Envelope: contracts.Envelope{
			Producer: n.producer,
			SentAt:   time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	routingKey := contracts.RouteNotifyPrefix + strings.ToLower(msg.RecipientRole)
	return n.publisher.Publish(contracts.ExchangeLifecycleTopic, routingKey, body)
}
