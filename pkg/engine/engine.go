package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rhuss/kanzel/pkg/llm"
	"github.com/rhuss/kanzel/pkg/tools"
	"github.com/rhuss/kanzel/pkg/upstream"
)

// ToolSource provides the tool catalog and executes tool calls. It is
// implemented by upstream.Client.
type ToolSource interface {
	ListTools(ctx context.Context) ([]upstream.ToolDescriptor, error)
	InvokeTool(ctx context.Context, name string, arguments map[string]any) (json.RawMessage, error)
}

var _ ToolSource = (*upstream.Client)(nil)

// Engine orchestrates chat completions between the endpoint client and
// the tool-resource server.
type Engine struct {
	llm    llm.Client
	source ToolSource
	policy tools.Policy
	cfg    Config
}

// New creates an Engine. The endpoint client and tool source must not
// be nil.
func New(client llm.Client, source ToolSource, policy tools.Policy, cfg Config) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("engine: llm client must not be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("engine: tool source must not be nil")
	}
	return &Engine{
		llm:    client,
		source: source,
		policy: policy,
		cfg:    cfg,
	}, nil
}
