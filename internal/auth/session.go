package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the per-request authorization context: the verified identity,
// its resolved scopes, and the arrival timestamp. Immutable once
// constructed; it lives for the duration of one operation invocation.
type Session struct {
	// ID correlates audit log lines for one invocation.
	ID         string
	Identity   *Identity
	Scopes     ScopeSet
	ReceivedAt time.Time
}

// NewSession constructs a session for a validated identity.
func NewSession(identity *Identity, scopes ScopeSet, receivedAt time.Time) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Identity:   identity,
		Scopes:     scopes,
		ReceivedAt: receivedAt,
	}
}

// Authorize is the central policy gate: ok iff the required scope is in the
// session's scope set, or the set contains admin. Stateless, no I/O.
func (s *Session) Authorize(required Scope) error {
	if s == nil {
		return ErrMissingCredential
	}
	if s.Scopes.Has(required) || s.Scopes.Has(ScopeAdmin) {
		return nil
	}
	return &ScopeError{Required: required}
}

// contextKey is the type for context keys to avoid collisions.
type contextKey struct{}

var sessionKey contextKey

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext retrieves the session placed by the transport middleware.
// Returns nil when the request never passed authentication.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}
