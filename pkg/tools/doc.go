// Package tools applies capability policies to the upstream tool
// catalog: restricting which tools are exposed, hiding parameters from
// callers, validating arguments before invocation, and suppressing
// annotation records from raw tool results.
package tools
