package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"ride-lifecycle/internal/general/contracts"
)

// PaymentService hands debit instructions to the payment processor over the
// lifecycle exchange. The publisher waits for broker confirms, so a nil
// return means the broker has taken responsibility for the instruction.
type PaymentService struct {
	publisher *MQPublisher
	producer  string
}

// NewPaymentService constructs a PaymentService bound to the given publisher.
func NewPaymentService(publisher *MQPublisher, producer string) *PaymentService {
	return &PaymentService{publisher: publisher, producer: producer}
}

// Debit publishes one PaymentRequestMessage for the given ride.
func (p *PaymentService) Debit(ctx context.Context, passengerID, rideID string, amount int64) error {
	msg := contracts.PaymentRequestMessage{
		RideID:      rideID,
		PassengerID: passengerID,
		Amount:      amount,
		RequestedAt: time.Now().UTC(),
		Envelope: contracts.Envelope{
			Producer: p.producer,
			SentAt:   time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.publisher.Publish(contracts.ExchangeLifecycleTopic, contracts.RoutePaymentDebit, body)
}
