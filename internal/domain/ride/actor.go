package ride

import (
	"errors"
	"strings"
)

// ActorType identifies who is requesting a transition.
type ActorType string

const (
	ActorPassenger ActorType = "PASSENGER"
	ActorDriver    ActorType = "DRIVER"
	ActorSystem    ActorType = "SYSTEM"
)

var ErrInvalidActorType = errors.New("invalid actor type")

// ParseActorType normalizes (uppercases+trims) and validates an actor type string.
func ParseActorType(in string) (ActorType, error) {
	actor := ActorType(strings.ToUpper(strings.TrimSpace(in)))
	if actor.Valid() {
		return actor, nil
	}
	return "", ErrInvalidActorType
}

// Valid reports whether actor is one of the allowed actor type constants.
func (actor ActorType) Valid() bool {
	switch actor {
	case ActorPassenger, ActorDriver, ActorSystem:
		return true
	default:
		return false
	}
}

// String returns the string representation of the ActorType.
func (actor ActorType) String() string {
	return string(actor)
}

// Convenience helpers.
func (actor ActorType) IsPassenger() bool { return actor == ActorPassenger }
func (actor ActorType) IsDriver() bool    { return actor == ActorDriver }
func (actor ActorType) IsSystem() bool    { return actor == ActorSystem }
