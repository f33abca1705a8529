package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"ride-lifecycle/internal/domain/ride"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoAuthHeader       = errors.New("authorization header missing")
	ErrBadAuthScheme      = errors.New("authorization must start with Bearer")
	ErrEmptyToken         = errors.New("bearer token missing")
	ErrInvalidSigningAlgo = errors.New("unexpected signing method")
	ErrActorForbidden     = errors.New("actor type not allowed")
)

// Manager handles JWT creation and validation.
type Manager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewManager creates a token manager.
func NewManager(secret string, accessTTL time.Duration) *Manager {
	s := strings.TrimSpace(secret)
	if s == "" {
		panic("jwt: empty secret key")
	}

	return &Manager{
		secret:    []byte(s),
		accessTTL: accessTTL,
	}
}

// IssueActorToken returns a signed access token for a lifecycle actor.
func (m *Manager) IssueActorToken(actorID string, actorType ride.ActorType) (string, *Claims, error) {
	if !actorType.Valid() {
		return "", nil, fmt.Errorf("invalid actor type: %s", actorType)
	}

	claims := NewActorClaims(actorID, actorType, m.accessTTL)
	tkn := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := tkn.SignedString(m.secret)

	return signed, claims, err
}

// FromAuthorization reads "Authorization: Bearer <token>".
func FromAuthorization(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoAuthHeader
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", ErrBadAuthScheme
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// ParseAndValidate verifies signature and standard claims.
func (m *Manager) ParseAndValidate(tokenString string) (*jwtlib.Token, *Claims, error) {
	// create parser with expected signing method
	parser := jwtlib.NewParser(jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))

	// validate claims and signature
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwtlib.Token) (any, error) {
		if t.Method != jwtlib.SigningMethodHS256 {
			return nil, ErrInvalidSigningAlgo
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, nil, err
	}

	if !token.Valid {
		return nil, nil, errors.New("invalid token")
	}

	return token, claims, nil
}

// ActorAllowed asserts the claims' actor type is one of the allowed.
func ActorAllowed(cl *Claims, allowed ...ride.ActorType) error {
	if slices.Contains(allowed, cl.ActorType) {
		return nil
	}
	return ErrActorForbidden
}

// Context wiring (used by middleware)
type ctxKey string

const claimsCtxKey ctxKey = "jwtClaims"

// InjectClaims adds JWT claims to the context.
func InjectClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// FromContext extracts JWT claims from the context.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok
}
