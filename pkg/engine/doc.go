// Package engine drives the tool-calling loop between the chat
// endpoint and the tool-resource server.
//
// One Complete call owns one conversation transcript. Each round asks
// the endpoint for the next turn; requested tool calls are executed
// concurrently and their results appended in request order, keeping the
// transcript deterministic. The loop is an explicit bounded iteration,
// not recursion, so the budget and termination condition are directly
// inspectable.
package engine
