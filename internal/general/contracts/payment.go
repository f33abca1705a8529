package contracts

import "time"

// PaymentRequestMessage asks the payment processor to debit a passenger's
// account balance for one completed ride instance. Amount is in minor
// currency units.
type PaymentRequestMessage struct {
	RideID      string    `json:"ride_id"`
	PassengerID string    `json:"passenger_id"`
	Amount      int64     `json:"amount"`
	RequestedAt time.Time `json:"requested_at"`
	Envelope
}
