package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "LIKES", "LIKES"},
		{"lowercase", "likes", "LIKES"},
		{"whitespace", "works at", "WORKS_AT"},
		{"mixed case and spaces", "Reports To", "REPORTS_TO"},
		{"punctuation stripped", "friend-of!", "FRIEND_OF"},
		{"digits kept", "tier2_support", "TIER2_SUPPORT"},
		{"collapses underscores", "a  __  b", "A_B"},
		{"trims underscores", "_secret_", "SECRET"},
		{"unicode replaced", "café owner", "CAF_OWNER"},
		{"tabs and newlines", "knows\tabout\n", "KNOWS_ABOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelationType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelationType_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "!!!", "___", "\t\n"} {
		_, err := RelationType(input)
		assert.ErrorIs(t, err, ErrEmptyRelationType, "input %q", input)
	}
}

func TestRelationType_Truncates(t *testing.T) {
	long := strings.Repeat("A", 200)
	got, err := RelationType(long)
	require.NoError(t, err)
	assert.Len(t, got, MaxRelationTypeLength)
}

func TestRelationType_OnlySafeCharacters(t *testing.T) {
	// Whatever goes in, only [A-Z0-9_] may come out: the result is
	// interpolated into query text.
	inputs := []string{"x; DROP ALL", "a`b", "$(rm -rf)", "LIKES) MATCH (n", "ünïcode"}
	for _, input := range inputs {
		got, err := RelationType(input)
		require.NoError(t, err)
		for _, r := range got {
			valid := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
			assert.True(t, valid, "input %q produced unsafe rune %q in %q", input, r, got)
		}
	}
}
