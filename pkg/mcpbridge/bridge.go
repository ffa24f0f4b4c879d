// Package mcpbridge re-exposes the filtered upstream tool catalog as an
// MCP server. Local MCP clients get the same view of the catalog as the
// chat endpoint: the allow-list applied, hidden parameters removed, and
// argument overrides injected on every call.
package mcpbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/kanzel/pkg/format"
	"github.com/rhuss/kanzel/pkg/tools"
	"github.com/rhuss/kanzel/pkg/upstream"
)

// Source provides the tool catalog and executes tool calls. It is
// implemented by upstream.Client.
type Source interface {
	ListTools(ctx context.Context) ([]upstream.ToolDescriptor, error)
	InvokeTool(ctx context.Context, name string, arguments map[string]any) (json.RawMessage, error)
}

// Bridge builds an MCP server view of the filtered catalog.
type Bridge struct {
	source    Source
	policy    tools.Policy
	overrides map[string]any
}

// New creates a Bridge over the given source and policy.
func New(source Source, policy tools.Policy, overrides map[string]any) *Bridge {
	return &Bridge{
		source:    source,
		policy:    policy,
		overrides: overrides,
	}
}

// Server fetches the catalog and builds an MCP server exposing the
// filtered tools.
func (b *Bridge) Server(ctx context.Context) (*mcp.Server, error) {
	catalog, err := b.source.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcpbridge: loading tool catalog: %w", err)
	}
	restricted := b.policy.Restrict(catalog)

	server := mcp.NewServer(
		&mcp.Implementation{Name: "kanzel", Version: "1.0.0"},
		nil,
	)

	for _, desc := range restricted {
		// Parsing into jsonschema.Schema rejects malformed schemas up
		// front instead of surfacing them to the MCP client later.
		var schema *jsonschema.Schema
		if len(desc.InputSchema) > 0 {
			schema = new(jsonschema.Schema)
			if err := json.Unmarshal(desc.InputSchema, schema); err != nil {
				return nil, fmt.Errorf("mcpbridge: schema for tool %q: %w", desc.Name, err)
			}
		}

		server.AddTool(&mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: schema,
		}, b.handler(desc))
	}

	return server, nil
}

// Run serves the bridge over stdio until the context is cancelled or the
// client disconnects.
func (b *Bridge) Run(ctx context.Context) error {
	server, err := b.Server(ctx)
	if err != nil {
		return err
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}

// handler executes one bridged tool call. Failures become MCP error
// results rather than protocol errors, so a misbehaving tool does not
// tear down the session.
func (b *Bridge) handler(desc upstream.ToolDescriptor) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Errorf("invalid arguments JSON: %w", err)), nil
			}
		}

		if err := tools.ValidateArguments(desc, args); err != nil {
			return errorResult(err), nil
		}

		for k, v := range b.overrides {
			args[k] = v
		}

		raw, err := b.source.InvokeTool(ctx, desc.Name, args)
		if err != nil {
			return errorResult(err), nil
		}

		if b.policy.Suppress != nil {
			raw, err = tools.SuppressAnnotations(raw, b.policy.Suppress)
			if err != nil {
				return errorResult(err), nil
			}
		}

		var content []mcp.Content
		for _, text := range format.Decode(raw).Texts() {
			content = append(content, &mcp.TextContent{Text: text})
		}
		return &mcp.CallToolResult{Content: content}, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
