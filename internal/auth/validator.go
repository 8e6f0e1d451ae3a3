package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Header names accepted at the boundary.
const (
	// HeaderAPIKey carries a static API key.
	HeaderAPIKey = "X-API-Key"
)

// Credentials holds the raw credential material extracted from a request.
// At most one of the two fields is consumed: a bearer token takes precedence
// over an API key.
type Credentials struct {
	BearerToken string
	APIKey      string
}

// CredentialsFromHeader extracts credentials from HTTP headers.
func CredentialsFromHeader(h http.Header) Credentials {
	var creds Credentials
	if v := h.Get("Authorization"); v != "" {
		if token, ok := strings.CutPrefix(v, "Bearer "); ok {
			creds.BearerToken = strings.TrimSpace(token)
		}
	}
	creds.APIKey = strings.TrimSpace(h.Get(HeaderAPIKey))
	return creds
}

// Validator verifies a single inbound credential and produces an Identity.
type Validator interface {
	Validate(ctx context.Context, creds Credentials) (*Identity, error)
}

// TokenVerifier is the contract consumed from the external identity
// provider: exchange an opaque bearer token for a verified identity and
// claim bag. Implementations perform the (blocking) provider call.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ChainValidator is the production Validator. It attempts delegated bearer
// validation first; if no bearer token is present it falls back to the
// static key registry. A presented-but-invalid credential fails the request
// immediately with no retry and no fallback to the other scheme.
type ChainValidator struct {
	tokens TokenVerifier
	keys   *KeyRegistry
}

// NewChainValidator builds a validator from the delegated verifier and the
// key registry. Either may be nil when a deployment runs a single scheme.
func NewChainValidator(tokens TokenVerifier, keys *KeyRegistry) *ChainValidator {
	return &ChainValidator{tokens: tokens, keys: keys}
}

// Validate implements Validator.
func (v *ChainValidator) Validate(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.BearerToken != "" {
		if v.tokens == nil {
			return nil, ErrInvalidCredential
		}
		identity, err := v.tokens.Verify(ctx, creds.BearerToken)
		if err != nil {
			// Expired, malformed, and signature failures all collapse to
			// the same caller-visible error.
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, errRedacted)
		}
		identity.Kind = CredentialDelegated
		return identity, nil
	}

	if creds.APIKey != "" {
		if v.keys == nil {
			return nil, ErrInvalidCredential
		}
		identity, ok := v.keys.Lookup(creds.APIKey)
		if !ok {
			return nil, ErrInvalidCredential
		}
		return identity, nil
	}

	return nil, ErrMissingCredential
}

// errRedacted stands in for verifier error detail so provider internals
// never reach the caller.
var errRedacted = fmt.Errorf("verification failed")
