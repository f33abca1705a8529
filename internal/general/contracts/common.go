package contracts

import "time"

// Envelope adds cross-cutting headers all messages may carry.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"` // Correlation for tracing across services
	Producer      string    `json:"producer,omitempty"`       // Producer service name, e.g. "lifecycle-service"
	SentAt        time.Time `json:"sent_at,omitempty"`        // ISO-8601 send time (UTC)
}
