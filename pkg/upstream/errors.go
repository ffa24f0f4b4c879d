package upstream

import "fmt"

// ConnectionError indicates the network layer could not complete the
// operation after retries.
type ConnectionError struct {
	Op  string // "tools/list" or "tools/call"
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ResponseError indicates the upstream returned a well-formed error:
// a non-2xx HTTP status, a JSON-RPC error member, or an undecodable
// payload. The original status code and message are preserved for the
// caller.
type ResponseError struct {
	Op      string
	Status  int
	Message string
}

func (e *ResponseError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Op, e.Message)
}
