package auth

import (
	"sort"
	"strings"
)

// Scope is the unit of authorization. Every operation requires exactly one.
type Scope string

const (
	// ScopeRead permits the query operations (read_graph, search_nodes, find_nodes).
	ScopeRead Scope = "read"
	// ScopeWrite permits the graph mutation operations.
	ScopeWrite Scope = "write"
	// ScopeAdmin permits everything, including health_check.
	// Admin is a superset of read and write, not a separate silo.
	ScopeAdmin Scope = "admin"
)

// ParseScope normalizes a raw scope string. Returns false for anything
// outside the fixed enumeration; unknown scopes contribute nothing.
func ParseScope(s string) (Scope, bool) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeRead:
		return ScopeRead, true
	case ScopeWrite:
		return ScopeWrite, true
	case ScopeAdmin:
		return ScopeAdmin, true
	default:
		return "", false
	}
}

// ScopeSet is a deduplicated set of scopes.
type ScopeSet map[Scope]struct{}

// NewScopeSet builds a set from the given scopes.
func NewScopeSet(scopes ...Scope) ScopeSet {
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return set
}

// Has reports whether the exact scope is present.
func (s ScopeSet) Has(scope Scope) bool {
	_, ok := s[scope]
	return ok
}

// Add inserts a scope into the set.
func (s ScopeSet) Add(scope Scope) {
	s[scope] = struct{}{}
}

// Slice returns the scopes in stable (sorted) order, for logging and
// health_check session info.
func (s ScopeSet) Slice() []Scope {
	out := make([]Scope, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the scopes as sorted plain strings.
func (s ScopeSet) Strings() []string {
	scopes := s.Slice()
	out := make([]string, len(scopes))
	for i, scope := range scopes {
		out[i] = string(scope)
	}
	return out
}
