// Package transport serves the kanzel gateway API over HTTP.
//
// The adapter exposes a Chat Completions endpoint backed by the
// orchestration engine, plus catalog inspection and cache management
// endpoints. Cross-cutting behavior (panic recovery, request IDs,
// request logging) is HTTP middleware composed with Chain; the handler
// code stays free of it.
package transport
