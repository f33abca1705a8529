package contracts

import "time"

// NotificationMessage carries a counterparty-facing status notification.
// Routing key: "ride.notify.{recipient_role}" on ExchangeLifecycleTopic.
type NotificationMessage struct {
	RideID        string    `json:"ride_id"`
	Recipient     string    `json:"recipient"`
	RecipientRole string    `json:"recipient_role"` // PASSENGER | DRIVER
	State         string    `json:"state"`
	SubState      string    `json:"sub_state,omitempty"`
	LegacyStatus  string    `json:"legacy_status"`
	OccurredAt    time.Time `json:"occurred_at"`
	Envelope
}

// EffectWarningMessage reports a failed post-commit side effect out-of-band.
// Routing key: RouteEffectWarning on ExchangeLifecycleTopic. The state commit
// it follows has already succeeded; consumers retry or page, they never roll back.
type EffectWarningMessage struct {
	RideID     string    `json:"ride_id"`
	Effect     string    `json:"effect"` // availability_acquire | availability_release | payment_debit | notification
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
	Envelope
}
