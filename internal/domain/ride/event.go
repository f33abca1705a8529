package ride

import (
	"encoding/json"
	"errors"
	"maps"
	"strings"
	"time"
)

// Event is the domain entity corresponding to the `ride_events` table: one
// append-only audit record per committed transition or task advance.
type Event struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time

	// Foreign keys
	RideID string

	// Core payload
	Type EventType
	Data map[string]any
}

var (
	ErrRideIDRequired = errors.New("ride id is required")
	ErrEventDataNil   = errors.New("event data must not be nil")
)

// NewEvent constructs a new domain Event.
func NewEvent(rideID string, eventType EventType, eventData map[string]any) (*Event, error) {
	if rideID = strings.TrimSpace(rideID); rideID == "" {
		return nil, ErrRideIDRequired
	}
	if !eventType.Valid() {
		return nil, ErrInvalidEventType
	}
	if eventData == nil {
		return nil, ErrEventDataNil
	}

	return &Event{
		RideID:    rideID,
		Type:      eventType,
		Data:      cloneMap(eventData),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewTransitionEvent builds the audit record for a committed transition.
func NewTransitionEvent(rideID string, from, to Phase, actorType ActorType, actorID, idempotencyKey string) (*Event, error) {
	return NewEvent(rideID, EventTypeFor(to), map[string]any{
		"from_state":      from.State.String(),
		"from_sub_state":  from.Sub.String(),
		"to_state":        to.State.String(),
		"to_sub_state":    to.Sub.String(),
		"legacy_status":   ProjectLegacyStatus(to.State, to.Sub),
		"actor_type":      actorType.String(),
		"actor_id":        actorID,
		"idempotency_key": idempotencyKey,
	})
}

// Validate performs basic invariant checks mirroring DB constraints.
func (event *Event) Validate() error {
	if event.RideID == "" {
		return ErrRideIDRequired
	}
	if !event.Type.Valid() {
		return ErrInvalidEventType
	}
	if event.Data == nil {
		return ErrEventDataNil
	}
	return nil
}

// DataJSON returns event.Data encoded as JSON.
func (event *Event) DataJSON() ([]byte, error) {
	if event.Data == nil {
		return nil, ErrEventDataNil
	}
	return json.Marshal(event.Data)
}

// cloneMap makes a shallow defensive copy of a map[string]any.
func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	maps.Copy(dst, src)
	return dst
}
