// Package graph is the knowledge-graph store adapter backed by Neo4j.
//
// The adapter owns the lifecycle of every persisted record: Entity nodes
// keyed by name, Observation nodes owned by exactly one entity, and typed
// directed edges between entities. Each operation translates to
// parameterized Cypher executed in its own session-scoped managed
// transaction; the session is released on every exit path, including
// cancellation.
//
// Batch operations are best-effort: items are applied independently and one
// item's failure neither aborts nor rolls back the others. Callers inspect
// the per-item results to detect partial failure.
//
// Relationship types are the single exception to "everything is a bound
// parameter": Neo4j requires static identifiers in relationship-type
// position, so the sanitized token from internal/sanitize is interpolated
// into the query text. Nothing else ever is.
package graph
