package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for credential failures. Handlers map these to
// 401-equivalent protocol errors.
var (
	// ErrMissingCredential is returned when neither a bearer token nor an
	// API key was presented. The message tells the caller which credential
	// forms are accepted.
	ErrMissingCredential = errors.New("no credential presented: supply an Authorization: Bearer token or an X-API-Key header")

	// ErrInvalidCredential is returned when a credential was presented but
	// failed verification. The message deliberately does not say which part
	// of verification failed.
	ErrInvalidCredential = errors.New("credential rejected")
)

// ScopeError is returned by the authorization gate when a valid identity
// lacks the required scope. Handlers map it to a 403-equivalent error.
type ScopeError struct {
	Required Scope
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("insufficient scope: %q required", e.Required)
}

// ErrorCode returns the stable wire code for an auth failure, or "" if the
// error is not an auth error.
func ErrorCode(err error) string {
	var scopeErr *ScopeError
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.As(err, &scopeErr):
		return "insufficient_scope"
	default:
		return ""
	}
}
