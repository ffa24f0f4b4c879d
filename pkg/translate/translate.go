// Package translate maps between the tool-resource server's descriptor,
// call, and result shapes and the Chat Completions function-calling
// shapes. All functions are pure; no I/O happens here.
package translate

import (
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rhuss/kanzel/pkg/upstream"
)

// MalformedCallError indicates the model emitted tool-call arguments
// that do not parse as JSON. This is never fatal: the orchestrator
// surfaces it as a tool-result message so the model can correct itself
// on the next turn.
type MalformedCallError struct {
	Tool string
	Err  error
}

func (e *MalformedCallError) Error() string {
	return fmt.Sprintf("malformed arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *MalformedCallError) Unwrap() error {
	return e.Err
}

// ToolDeclaration maps one descriptor into a function declaration,
// preserving the input schema verbatim as the parameter schema.
func ToolDeclaration(desc upstream.ToolDescriptor) openai.Tool {
	fn := &openai.FunctionDefinition{
		Name:        desc.Name,
		Description: desc.Description,
	}
	if len(desc.InputSchema) > 0 {
		fn.Parameters = json.RawMessage(desc.InputSchema)
	}
	return openai.Tool{
		Type:     openai.ToolTypeFunction,
		Function: fn,
	}
}

// ToolDeclarations maps a catalog, preserving order.
func ToolDeclarations(catalog []upstream.ToolDescriptor) []openai.Tool {
	if len(catalog) == 0 {
		return nil
	}
	decls := make([]openai.Tool, 0, len(catalog))
	for _, desc := range catalog {
		decls = append(decls, ToolDeclaration(desc))
	}
	return decls
}

// CallArguments parses the serialized argument string of a tool call.
// An empty argument string is a call without arguments.
func CallArguments(call openai.ToolCall) (map[string]any, error) {
	raw := strings.TrimSpace(call.Function.Arguments)
	if raw == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, &MalformedCallError{Tool: call.Function.Name, Err: err}
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// ResultMessage builds the tool-role message for a completed invocation,
// concatenating the text blocks with a blank-line separator.
func ResultMessage(callID, toolName string, texts []string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Name:       toolName,
		Content:    strings.Join(texts, "\n\n"),
		ToolCallID: callID,
	}
}

// ErrorMessage builds the tool-role message for a failed invocation.
// The error becomes readable content rather than a fatal condition, so
// the model can react to it on the next turn.
func ErrorMessage(callID, toolName string, err error) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Name:       toolName,
		Content:    fmt.Sprintf("Error executing tool %s: %v", toolName, err),
		ToolCallID: callID,
	}
}
