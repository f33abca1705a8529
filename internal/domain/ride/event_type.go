package ride

import (
	"errors"
	"strings"
)

// EventType corresponds to the values in the `event_type` column of `ride_events`.
type EventType string

const (
	EventRideRequested EventType = "RIDE_REQUESTED"
	EventStateChanged  EventType = "STATE_CHANGED"
	EventRideCancelled EventType = "RIDE_CANCELLED"
	EventRideCompleted EventType = "RIDE_COMPLETED"
	EventRideFinalized EventType = "RIDE_FINALIZED"
	EventTaskAdvanced  EventType = "TASK_ADVANCED"
)

var ErrInvalidEventType = errors.New("invalid ride event type")

// ParseEventType normalizes (uppercases+trims) and validates an event type string.
func ParseEventType(input string) (EventType, error) {
	eventType := EventType(strings.ToUpper(strings.TrimSpace(input)))
	if eventType.Valid() {
		return eventType, nil
	}
	return "", ErrInvalidEventType
}

// Valid reports whether eventType is one of the allowed event type constants.
func (eventType EventType) Valid() bool {
	switch eventType {
	case EventRideRequested,
		EventStateChanged,
		EventRideCancelled,
		EventRideCompleted,
		EventRideFinalized,
		EventTaskAdvanced:
		return true
	default:
		return false
	}
}

// String returns the string representation of the EventType.
func (eventType EventType) String() string {
	return string(eventType)
}

// EventTypeFor returns the specific event type recorded for a committed
// transition into the given target phase.
func EventTypeFor(target Phase) EventType {
	switch target.State {
	case StateCancelled:
		return EventRideCancelled
	case StateCompletedInstance:
		return EventRideCompleted
	case StateCompletedFinal:
		return EventRideFinalized
	default:
		return EventStateChanged
	}
}
