package upstream

import "encoding/json"

// ToolDescriptor describes one tool offered by the resource server.
// The input schema is kept verbatim as raw JSON; it is passed through to
// the LLM endpoint without interpretation.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// rpcRequest is the JSON-RPC style envelope sent to the resource server.
type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Method  string     `json:"method"`
	Params  *rpcParams `json:"params,omitempty"`
}

// rpcParams carries the tool name and arguments for a tools/call request.
type rpcParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// rpcResponse is the envelope returned by the resource server.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the error member of a JSON-RPC response.
type rpcError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// listResult is the result payload of a tools/list response.
type listResult struct {
	Tools []ToolDescriptor `json:"tools"`
}
