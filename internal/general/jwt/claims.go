package jwt

import (
	"time"

	"ride-lifecycle/internal/domain/ride"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims defines our canonical JWT claims payload. Subject is the actor id;
// ActorType says which lifecycle role the token acts as.
type Claims struct {
	ActorType ride.ActorType `json:"actor_type"` // PASSENGER/DRIVER/SYSTEM
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewActorClaims constructs claims for a lifecycle actor.
func NewActorClaims(actorID string, actorType ride.ActorType, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		ActorType: actorType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   actorID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
