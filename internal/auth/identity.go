package auth

import "time"

// CredentialKind identifies which credential scheme produced an Identity.
type CredentialKind string

const (
	// CredentialDelegated marks identities verified by the external
	// identity provider from a bearer token.
	CredentialDelegated CredentialKind = "delegated"
	// CredentialStaticKey marks identities derived from a provisioned API key.
	CredentialStaticKey CredentialKind = "static-key"
)

// Identity is the verified subject of a single request. It is created by a
// Validator, never persisted, and lives for exactly one request.
type Identity struct {
	// Subject is the opaque subject identifier from the provider or key entry.
	Subject string
	// Email and DisplayName are optional profile attributes from the claim bag.
	Email       string
	DisplayName string
	// Kind records which credential scheme verified this identity.
	Kind CredentialKind

	// Roles is the raw role list from the claim bag (admin, writer, reader, ...).
	Roles []string
	// ScopeClaims are explicit scope strings from the claim bag.
	ScopeClaims []string
	// TenantScopes maps tenant identifiers to scope strings. No per-tenant
	// isolation is modeled here; the resolver flattens these into the
	// request's scope set.
	TenantScopes map[string][]string

	// IssuedAt and ExpiresAt are optional token lifetimes; zero when unknown.
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Clone returns a deep copy. Verification caches hand out clones so no two
// requests ever share a mutable Identity.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	out.Roles = append([]string(nil), i.Roles...)
	out.ScopeClaims = append([]string(nil), i.ScopeClaims...)
	if i.TenantScopes != nil {
		out.TenantScopes = make(map[string][]string, len(i.TenantScopes))
		for tenant, scopes := range i.TenantScopes {
			out.TenantScopes[tenant] = append([]string(nil), scopes...)
		}
	}
	return &out
}
