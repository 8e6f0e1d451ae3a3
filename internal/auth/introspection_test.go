package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrospectionClient_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tok-1", r.FormValue("token"))

		json.NewEncoder(w).Encode(map[string]any{
			"active": true,
			"sub":    "alice",
			"email":  "alice@example.com",
			"name":   "Alice",
			"scope":  "read write",
			"roles":  []string{"writer"},
			"tenants": map[string][]string{
				"acme": {"read"},
			},
			"iat": time.Now().Add(-time.Hour).Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})
	}))
	defer srv.Close()

	c, err := NewIntrospectionClient(srv.URL, time.Second)
	require.NoError(t, err)

	identity, err := c.Verify(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Subject)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, CredentialDelegated, identity.Kind)
	assert.ElementsMatch(t, []string{"read", "write"}, identity.ScopeClaims)
	assert.Equal(t, []string{"writer"}, identity.Roles)
	assert.Equal(t, []string{"read"}, identity.TenantScopes["acme"])
	assert.False(t, identity.IssuedAt.IsZero())
	assert.False(t, identity.ExpiresAt.IsZero())
}

func TestIntrospectionClient_InactiveToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"active": false})
	}))
	defer srv.Close()

	c, err := NewIntrospectionClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "revoked")
	assert.Error(t, err)
}

func TestIntrospectionClient_ExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"active": true,
			"sub":    "alice",
			"exp":    time.Now().Add(-time.Minute).Unix(),
		})
	}))
	defer srv.Close()

	c, err := NewIntrospectionClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "stale")
	assert.Error(t, err)
}

func TestIntrospectionClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewIntrospectionClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "tok")
	assert.Error(t, err)
}

func TestIntrospectionClient_MissingSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"active": true})
	}))
	defer srv.Close()

	c, err := NewIntrospectionClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "tok")
	assert.Error(t, err)
}

func TestNewIntrospectionClient_RequiresEndpoint(t *testing.T) {
	_, err := NewIntrospectionClient("", time.Second)
	assert.Error(t, err)
}
