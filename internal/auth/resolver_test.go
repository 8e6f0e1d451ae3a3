package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveScopes_RoleTable(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  []Scope
	}{
		{"admin", []string{"admin"}, []Scope{ScopeAdmin}},
		{"writer", []string{"writer"}, []Scope{ScopeRead, ScopeWrite}},
		{"write alias", []string{"write"}, []Scope{ScopeRead, ScopeWrite}},
		{"reader", []string{"reader"}, []Scope{ScopeRead}},
		{"read alias", []string{"read"}, []Scope{ScopeRead}},
		{"case insensitive", []string{"Admin"}, []Scope{ScopeAdmin}},
		{"unknown contributes nothing, default applies", []string{"janitor"}, []Scope{ScopeRead}},
		{"mixed", []string{"reader", "writer"}, []Scope{ScopeRead, ScopeWrite}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveScopes(&Identity{Roles: tt.roles})
			assert.ElementsMatch(t, tt.want, got.Slice())
		})
	}
}

func TestResolveScopes_DirectClaims(t *testing.T) {
	got := ResolveScopes(&Identity{ScopeClaims: []string{"write", "WRITE", " read "}})
	assert.ElementsMatch(t, []Scope{ScopeRead, ScopeWrite}, got.Slice())
}

func TestResolveScopes_TenantClaimsFlattened(t *testing.T) {
	got := ResolveScopes(&Identity{
		TenantScopes: map[string][]string{
			"acme":  {"write"},
			"globo": {"read", "bogus"},
		},
	})
	assert.ElementsMatch(t, []Scope{ScopeRead, ScopeWrite}, got.Slice())
}

func TestResolveScopes_DefaultRead(t *testing.T) {
	got := ResolveScopes(&Identity{})
	assert.Equal(t, []Scope{ScopeRead}, got.Slice())

	got = ResolveScopes(nil)
	assert.Equal(t, []Scope{ScopeRead}, got.Slice())
}

func TestResolveScopes_NeverSilentlyElevates(t *testing.T) {
	// Unknown roles and garbage claims must not produce write or admin.
	got := ResolveScopes(&Identity{
		Roles:       []string{"superuser", "root", "owner"},
		ScopeClaims: []string{"write-everything", "admin2"},
	})
	assert.False(t, got.Has(ScopeWrite))
	assert.False(t, got.Has(ScopeAdmin))
	assert.True(t, got.Has(ScopeRead))
}

func TestScopeSet(t *testing.T) {
	set := NewScopeSet(ScopeWrite, ScopeWrite, ScopeRead)
	assert.Len(t, set, 2)
	assert.True(t, set.Has(ScopeRead))
	assert.False(t, set.Has(ScopeAdmin))
	assert.Equal(t, []string{"read", "write"}, set.Strings())
}

func TestParseScope(t *testing.T) {
	for raw, want := range map[string]Scope{
		"read":   ScopeRead,
		"WRITE":  ScopeWrite,
		" admin": ScopeAdmin,
	} {
		got, ok := ParseScope(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got)
	}

	_, ok := ParseScope("readwrite")
	assert.False(t, ok)
}
