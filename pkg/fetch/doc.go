// Package fetch performs single logical HTTP operations with bounded
// retries and exponential backoff.
//
// The upstream tool-resource server runs on an elastic, cold-starting
// backend: the first call after an idle period routinely fails or times
// out, and a warm retry within a few seconds typically succeeds. The
// Fetcher retries timeouts, transport errors, and a configurable set of
// status codes, with delays of baseDelay × factor^(attempt−1), so the
// worst-case latency stays bounded while the backend finishes
// initializing.
//
// The fetcher has no knowledge of tools or conversations; callers
// classify non-2xx responses themselves.
package fetch
