package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingVerifier struct {
	calls    int
	identity *Identity
	err      error
}

func (c *countingVerifier) Verify(context.Context, string) (*Identity, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.identity, nil
}

func TestCachingVerifier_HitsProviderOnce(t *testing.T) {
	upstream := &countingVerifier{identity: &Identity{
		Subject:   "alice",
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	v := NewCachingVerifier(upstream, NewStateStore(time.Minute))

	for i := 0; i < 3; i++ {
		identity, err := v.Verify(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Subject)
	}
	assert.Equal(t, 1, upstream.calls)
}

func TestCachingVerifier_DistinctTokensDistinctEntries(t *testing.T) {
	upstream := &countingVerifier{identity: &Identity{Subject: "alice"}}
	v := NewCachingVerifier(upstream, NewStateStore(time.Minute))

	_, err := v.Verify(context.Background(), "tok-1")
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), "tok-2")
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.calls)
}

func TestCachingVerifier_FailuresNotCached(t *testing.T) {
	upstream := &countingVerifier{err: errors.New("inactive")}
	v := NewCachingVerifier(upstream, NewStateStore(time.Minute))

	_, err := v.Verify(context.Background(), "tok-1")
	require.Error(t, err)
	_, err = v.Verify(context.Background(), "tok-1")
	require.Error(t, err)

	assert.Equal(t, 2, upstream.calls)
}

func TestCachingVerifier_CachedIdentityNotAliased(t *testing.T) {
	upstream := &countingVerifier{identity: &Identity{
		Subject: "alice",
		Roles:   []string{"reader"},
	}}
	v := NewCachingVerifier(upstream, NewStateStore(time.Minute))

	first, err := v.Verify(context.Background(), "tok-1")
	require.NoError(t, err)

	// A caller mutating its identity must not leak into what later
	// requests carrying the same token receive.
	first.Kind = CredentialStaticKey
	first.Roles[0] = "admin"

	second, err := v.Verify(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, CredentialKind(""), second.Kind)
	assert.Equal(t, []string{"reader"}, second.Roles)
}

func TestCachingVerifier_ExpiredIdentityReverified(t *testing.T) {
	upstream := &countingVerifier{identity: &Identity{
		Subject:   "alice",
		ExpiresAt: time.Now().Add(-time.Minute),
	}}
	v := NewCachingVerifier(upstream, NewStateStore(time.Hour))

	_, err := v.Verify(context.Background(), "tok-1")
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), "tok-1")
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.calls, "token past its exp must not be served from cache")
}
