// Package auth implements the credential and authorization model for graphmemd.
//
// Every inbound request carries exactly one credential: a delegated bearer
// token verified against the external identity provider, or a static API key
// checked against the in-process key registry. Validation yields an Identity,
// the capability resolver maps the identity to a set of scopes, and the two
// together form the per-request Session that every operation consults before
// touching the graph store.
//
// The scope model is deliberately small: read, write, and admin, where admin
// implies the other two. Each MCP tool declares a single required scope at
// registration time; the Session.Authorize gate is the only policy choke
// point.
package auth
