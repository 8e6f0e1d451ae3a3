package auth

import "strings"

// roleScopes is the fixed role-to-scope policy table. Read-only after
// startup; unknown roles contribute nothing.
var roleScopes = map[string][]Scope{
	"admin":  {ScopeAdmin},
	"writer": {ScopeRead, ScopeWrite},
	"write":  {ScopeRead, ScopeWrite},
	"reader": {ScopeRead},
	"read":   {ScopeRead},
}

// ResolveScopes maps an Identity's claim bag to its normalized scope set.
//
// Sources, in order: explicit scope claims, the role table, and tenant-scoped
// claims flattened into the same set (tenant isolation is the identity
// provider's concern, not this layer's). When nothing resolves, the caller
// gets {read}: never an empty capability set, never a silent write/admin
// grant.
func ResolveScopes(identity *Identity) ScopeSet {
	set := NewScopeSet()
	if identity == nil {
		set.Add(ScopeRead)
		return set
	}

	for _, raw := range identity.ScopeClaims {
		if scope, ok := ParseScope(raw); ok {
			set.Add(scope)
		}
	}

	for _, role := range identity.Roles {
		if scopes, ok := roleScopes[normalizeRole(role)]; ok {
			for _, s := range scopes {
				set.Add(s)
			}
		}
	}

	for _, tenantClaims := range identity.TenantScopes {
		for _, raw := range tenantClaims {
			if scope, ok := ParseScope(raw); ok {
				set.Add(scope)
			}
		}
	}

	if len(set) == 0 {
		set.Add(ScopeRead)
	}
	return set
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
