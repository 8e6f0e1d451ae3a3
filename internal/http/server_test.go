package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/graphmemd/internal/auth"
)

func newTestServer(t *testing.T) (*Server, *atomic.Int64) {
	t.Helper()

	var mcpHits atomic.Int64
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mcpHits.Add(1)
		session := auth.FromContext(r.Context())
		require.NotNil(t, session, "authenticated request must carry a session")
		w.WriteHeader(http.StatusOK)
	})

	validator := auth.NewChainValidator(nil, auth.NewKeyRegistry([]auth.KeyEntry{
		{Key: "sk-valid", Subject: "tester", Scopes: []string{"read"}},
	}))

	srv, err := NewServer(&Config{Host: "localhost", Port: 0}, mcpHandler, validator, zap.NewNop())
	require.NoError(t, err)
	return srv, &mcpHits
}

func TestLivezIsOpen(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body LivezResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestMetricsIsOpen(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMCPRejectsAnonymousRequests(t *testing.T) {
	srv, mcpHits := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, mcpHits.Load(), "handler must not run without a credential")

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing_credential", body["error"]["code"])
}

func TestMCPRejectsUnknownAPIKey(t *testing.T) {
	srv, mcpHits := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set(auth.HeaderAPIKey, "sk-wrong")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, mcpHits.Load())
}

func TestMCPAcceptsValidAPIKey(t *testing.T) {
	srv, mcpHits := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set(auth.HeaderAPIKey, "sk-valid")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), mcpHits.Load())
}

func TestRateLimiterThrottles(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	validator := auth.NewChainValidator(nil, auth.NewKeyRegistry([]auth.KeyEntry{
		{Key: "sk-valid", Subject: "tester", Scopes: []string{"read"}},
	}))

	srv, err := NewServer(&Config{
		Host: "localhost",
		Port: 0,
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     1,
			Burst:   1,
		},
	}, mcpHandler, validator, zap.NewNop())
	require.NoError(t, err)

	throttled := false
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/livez", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			throttled = true
			break
		}
	}
	assert.True(t, throttled, "burst of requests from one IP should hit the limiter")
}
