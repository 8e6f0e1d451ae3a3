package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		scopes   []Scope
		required Scope
		wantOK   bool
	}{
		{"read allows read", []Scope{ScopeRead}, ScopeRead, true},
		{"read denies write", []Scope{ScopeRead}, ScopeWrite, false},
		{"read denies admin", []Scope{ScopeRead}, ScopeAdmin, false},
		{"write allows write", []Scope{ScopeRead, ScopeWrite}, ScopeWrite, true},
		{"write denies admin", []Scope{ScopeRead, ScopeWrite}, ScopeAdmin, false},
		{"admin allows read", []Scope{ScopeAdmin}, ScopeRead, true},
		{"admin allows write", []Scope{ScopeAdmin}, ScopeWrite, true},
		{"admin allows admin", []Scope{ScopeAdmin}, ScopeAdmin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(&Identity{Subject: "s"}, NewScopeSet(tt.scopes...), time.Now())
			err := s.Authorize(tt.required)
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				var scopeErr *ScopeError
				require.ErrorAs(t, err, &scopeErr)
				assert.Equal(t, tt.required, scopeErr.Required)
			}
		})
	}
}

func TestSessionAuthorize_NilSession(t *testing.T) {
	var s *Session
	assert.ErrorIs(t, s.Authorize(ScopeRead), ErrMissingCredential)
}

func TestScopeError_NamesRequiredScope(t *testing.T) {
	err := &ScopeError{Required: ScopeWrite}
	assert.Contains(t, err.Error(), `"write"`)
}

func TestNewSession_AssignsUniqueID(t *testing.T) {
	a := NewSession(&Identity{Subject: "s"}, NewScopeSet(ScopeRead), time.Now())
	b := NewSession(&Identity{Subject: "s"}, NewScopeSet(ScopeRead), time.Now())
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSessionContextRoundTrip(t *testing.T) {
	s := NewSession(&Identity{Subject: "alice"}, NewScopeSet(ScopeRead), time.Now())
	ctx := WithSession(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))
}

func TestFromContext_Empty(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
