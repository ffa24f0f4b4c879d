// Package upstream implements the client for the tool-resource server.
//
// The server exposes two operations over HTTP with JSON-RPC style
// envelopes: "tools/list" returns the current tool descriptors, and
// "tools/call" invokes a named tool with arguments. Every tool, known or
// newly introduced upstream, is addressed through the same invocation
// path; the set of tools is owned entirely by the server and never
// requires a client-side change.
//
// Discovered descriptors are held in an explicit CatalogCache owned by
// the Client, so separate orchestrator instances do not share hidden
// state.
package upstream
