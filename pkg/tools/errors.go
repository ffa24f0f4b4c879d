package tools

import "fmt"

// DisabledError indicates a call to a tool outside the allow-list.
// The check runs even for directly named tools; the model or a caller
// could otherwise reach a disabled tool.
type DisabledError struct {
	Tool string
}

func (e *DisabledError) Error() string {
	return fmt.Sprintf("tool %q is not enabled", e.Tool)
}

// NotFoundError indicates the named tool is absent from the current
// catalog. The catalog is always potentially stale, so this can happen
// for tools the model saw on an earlier turn.
type NotFoundError struct {
	Tool string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found in catalog", e.Tool)
}

// InvalidArgumentsError indicates the supplied arguments do not satisfy
// the tool's input schema.
type InvalidArgumentsError struct {
	Tool   string
	Detail string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Detail)
}
