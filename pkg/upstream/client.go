package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rhuss/kanzel/pkg/fetch"
)

const (
	methodListTools = "tools/list"
	methodCallTool  = "tools/call"
)

// Client talks to the tool-resource server. All operations address the
// same endpoint with different request bodies; there is no routing table
// keyed by tool name.
type Client struct {
	endpoint string
	fetcher  *fetch.Fetcher
	cache    CatalogCache
}

// NewClient creates a Client for the given endpoint URL. The fetcher
// carries the retry/backoff policy for the cold-starting backend.
func NewClient(endpoint string, fetcher *fetch.Fetcher) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		fetcher:  fetcher,
	}
}

// Cache exposes the catalog cache for explicit invalidation and status
// inspection.
func (c *Client) Cache() *CatalogCache {
	return &c.cache
}

// ListTools returns the current tool catalog, fetching it lazily on
// first need and caching the result until invalidated.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	if tools, ok := c.cache.Get(); ok {
		return tools, nil
	}

	result, err := c.call(ctx, methodListTools, nil)
	if err != nil {
		return nil, err
	}

	var list listResult
	if err := json.Unmarshal(result, &list); err != nil {
		return nil, &ResponseError{Op: methodListTools, Message: fmt.Sprintf("malformed tool list: %v", err)}
	}

	c.cache.Populate(list.Tools)
	return list.Tools, nil
}

// InvokeTool invokes the named tool with the given arguments and returns
// the raw result payload. The shape of the payload is not inspected here;
// interpretation belongs to the translation and filtering layers.
func (c *Client) InvokeTool(ctx context.Context, name string, arguments map[string]any) (json.RawMessage, error) {
	return c.call(ctx, methodCallTool, &rpcParams{Name: name, Arguments: arguments})
}

// call performs one JSON-RPC exchange with the resource server.
func (c *Client) call(ctx context.Context, method string, params *rpcParams) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling %s request: %w", method, err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	resp, err := c.fetcher.Post(ctx, c.endpoint, header, body)
	if err != nil {
		return nil, &ConnectionError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Op: method, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ResponseError{
			Op:      method,
			Status:  resp.StatusCode,
			Message: errorMessage(data),
		}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &ResponseError{Op: method, Status: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if envelope.Error != nil {
		return nil, &ResponseError{Op: method, Status: resp.StatusCode, Message: envelope.Error.Message}
	}

	return envelope.Result, nil
}

// errorMessage extracts error.message from an error body, falling back
// to a trimmed copy of the raw body.
func errorMessage(data []byte) string {
	var envelope rpcResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error.Message
	}

	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "no error detail"
	}
	return msg
}
