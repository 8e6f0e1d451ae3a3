// Package sanitize provides shared identifier sanitization for graph queries.
//
// Relationship types in Neo4j are schema-level identifiers and cannot be
// passed as bound parameters; they have to be spliced into the query text.
// This package produces the only tokens that are ever interpolated that way:
// everything else travels as a parameter.
package sanitize

import (
	"errors"
	"strings"
)

// MaxRelationTypeLength is the maximum length for a sanitized relationship
// type token.
const MaxRelationTypeLength = 64

// ErrEmptyRelationType is returned when a relation type contains no
// usable characters after sanitization.
var ErrEmptyRelationType = errors.New("relation type contains no usable characters")

// RelationType sanitizes a free-form relation type into a token safe to
// interpolate as a Neo4j relationship type.
//
// Rules applied:
//   - Converts to uppercase
//   - Replaces whitespace and invalid characters with underscores
//   - Collapses multiple underscores
//   - Trims leading/trailing underscores
//   - Rejects results that are empty or exceed MaxRelationTypeLength
//
// Examples:
//
//	"works at"  -> "WORKS_AT"
//	"Likes!"    -> "LIKES"
//	"" or "!!!" -> ErrEmptyRelationType
func RelationType(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}

	sanitized := result.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		return "", ErrEmptyRelationType
	}
	if len(sanitized) > MaxRelationTypeLength {
		sanitized = strings.TrimRight(sanitized[:MaxRelationTypeLength], "_")
	}

	return sanitized, nil
}
