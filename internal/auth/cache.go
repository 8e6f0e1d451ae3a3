package auth

import (
	"context"
	"time"
)

// CachingVerifier wraps a TokenVerifier with a short-TTL result cache so a
// burst of requests carrying the same bearer token does not hammer the
// identity provider. Only successful verifications are cached; failures
// always go back to the provider.
type CachingVerifier struct {
	verifier TokenVerifier
	cache    *StateStore
}

// NewCachingVerifier wraps verifier with the given cache. The cache's TTL
// bounds how long a revocation at the provider can go unnoticed.
func NewCachingVerifier(verifier TokenVerifier, cache *StateStore) *CachingVerifier {
	return &CachingVerifier{verifier: verifier, cache: cache}
}

// Verify implements TokenVerifier. Callers receive a private copy of the
// identity on every call: the cached Identity is never aliased, so requests
// sharing a token cannot race on its fields.
func (v *CachingVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if cached, ok := v.cache.Get(token); ok {
		identity := cached.(*Identity)
		// The cache TTL never extends the token's own lifetime.
		if identity.ExpiresAt.IsZero() || time.Now().Before(identity.ExpiresAt) {
			return identity.Clone(), nil
		}
	}

	identity, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	v.cache.Put(token, identity.Clone())
	return identity, nil
}
