package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultIntrospectionTimeout = 5 * time.Second
	maxIntrospectionBody        = 1 << 20 // 1MB
)

// IntrospectionClient verifies delegated bearer tokens against the identity
// provider's token introspection endpoint (RFC 7662 shaped). It implements
// TokenVerifier.
type IntrospectionClient struct {
	endpoint string
	client   *http.Client
}

// NewIntrospectionClient builds a verifier for the given endpoint URL.
// A zero timeout uses the default.
func NewIntrospectionClient(endpoint string, timeout time.Duration) (*IntrospectionClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("introspection endpoint is required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid introspection endpoint: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultIntrospectionTimeout
	}
	return &IntrospectionClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// introspectionResponse is the provider's claim bag for a verified token.
type introspectionResponse struct {
	Active   bool                `json:"active"`
	Subject  string              `json:"sub"`
	Email    string              `json:"email"`
	Name     string              `json:"name"`
	Scope    string              `json:"scope"`
	Scopes   []string            `json:"scopes"`
	Roles    []string            `json:"roles"`
	Tenants  map[string][]string `json:"tenants"`
	IssuedAt int64               `json:"iat"`
	Expiry   int64               `json:"exp"`
}

// Verify implements TokenVerifier. Any provider-side rejection (inactive,
// expired, malformed) surfaces as a generic verification error; the caller
// maps it to ErrInvalidCredential.
func (c *IntrospectionClient) Verify(ctx context.Context, token string) (*Identity, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspection call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("introspection returned status %d", resp.StatusCode)
	}

	var ir introspectionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIntrospectionBody)).Decode(&ir); err != nil {
		return nil, fmt.Errorf("decode introspection response: %w", err)
	}

	if !ir.Active {
		return nil, fmt.Errorf("token is not active")
	}
	if ir.Expiry != 0 && time.Now().After(time.Unix(ir.Expiry, 0)) {
		return nil, fmt.Errorf("token is expired")
	}

	identity := &Identity{
		Subject:      ir.Subject,
		Email:        ir.Email,
		DisplayName:  ir.Name,
		Kind:         CredentialDelegated,
		Roles:        ir.Roles,
		ScopeClaims:  ir.Scopes,
		TenantScopes: ir.Tenants,
	}
	if ir.Scope != "" {
		identity.ScopeClaims = append(identity.ScopeClaims, strings.Fields(ir.Scope)...)
	}
	if ir.IssuedAt != 0 {
		identity.IssuedAt = time.Unix(ir.IssuedAt, 0)
	}
	if ir.Expiry != 0 {
		identity.ExpiresAt = time.Unix(ir.Expiry, 0)
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("introspection response missing subject")
	}
	return identity, nil
}
