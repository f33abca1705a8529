package contracts

import "time"

// RideStatusMessage is published by the lifecycle service after every
// committed transition. Routing key: "ride.status.{state}" on
// ExchangeLifecycleTopic.
type RideStatusMessage struct {
	RideID       string    `json:"ride_id"`
	State        string    `json:"state"`
	SubState     string    `json:"sub_state,omitempty"`
	LegacyStatus string    `json:"legacy_status"`
	Version      int       `json:"version"`
	ActorType    string    `json:"actor_type"`
	ActorID      string    `json:"actor_id"`
	Timestamp    time.Time `json:"timestamp"`
	Envelope
}

// DriverStatusMessage is published by the driver app when the driver taps a
// progress action. Routing key: "driver.status.{driver_id}" on
// ExchangeLifecycleTopic. Consumed by the lifecycle service and turned into a
// transition request.
type DriverStatusMessage struct {
	DriverID       string    `json:"driver_id"`
	RideID         string    `json:"ride_id"`
	TargetState    string    `json:"target_state"`
	TargetSubState string    `json:"target_sub_state,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Envelope
}
