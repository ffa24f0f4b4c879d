package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rhuss/kanzel/pkg/format"
	"github.com/rhuss/kanzel/pkg/observability"
	"github.com/rhuss/kanzel/pkg/tools"
	"github.com/rhuss/kanzel/pkg/translate"
	"github.com/rhuss/kanzel/pkg/upstream"
)

// Complete runs the tool-calling loop for one chat completion request.
// The caller's request is taken by value; its message slice is never
// mutated. Every field besides Messages and Tools passes through to the
// endpoint unchanged, so sampling parameters and n survive the loop.
//
// When a round's candidates include tool calls, the first candidate by
// index that carries them drives the loop. A round without tool calls
// is the final answer and is returned with all candidates intact. Once
// the iteration budget is spent, one last call is made with the tool
// declarations omitted to force a textual answer.
func (e *Engine) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if req.Model == "" {
		if e.cfg.DefaultModel == "" {
			return openai.ChatCompletionResponse{}, fmt.Errorf("engine: model is required")
		}
		req.Model = e.cfg.DefaultModel
	}

	catalog, err := e.source.ListTools(ctx)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("engine: loading tool catalog: %w", err)
	}
	restricted := e.policy.Restrict(catalog)

	transcript := append([]openai.ChatCompletionMessage(nil), req.Messages...)
	req.Tools = translate.ToolDeclarations(restricted)

	maxIterations := e.cfg.maxToolIterations()
	for iteration := 0; iteration < maxIterations; iteration++ {
		if ctx.Err() != nil {
			return openai.ChatCompletionResponse{}, ctx.Err()
		}

		req.Messages = transcript
		resp, err := e.llm.CreateChatCompletion(ctx, req)
		if err != nil {
			return openai.ChatCompletionResponse{}, err
		}

		candidate, ok := pickCandidate(resp)
		if !ok {
			observability.ToolIterationsPerRequest.Observe(float64(iteration))
			return resp, nil
		}

		slog.Debug("executing tool calls",
			"iteration", iteration+1,
			"calls", len(candidate.Message.ToolCalls),
		)

		// The assistant message carrying the tool calls must precede
		// the tool result messages in the transcript.
		transcript = append(transcript, candidate.Message)
		transcript = append(transcript, e.executeToolCalls(ctx, restricted, candidate.Message.ToolCalls)...)
	}

	observability.ToolIterationsPerRequest.Observe(float64(maxIterations))

	// Budget spent: ask for a final answer without offering tools.
	req.Messages = transcript
	req.Tools = nil
	req.ToolChoice = nil
	return e.llm.CreateChatCompletion(ctx, req)
}

// pickCandidate selects the choice that drives the next loop round: the
// first choice by index whose message requests tool calls. When no
// choice does, the response is a final answer.
func pickCandidate(resp openai.ChatCompletionResponse) (openai.ChatCompletionChoice, bool) {
	for _, choice := range resp.Choices {
		if len(choice.Message.ToolCalls) > 0 {
			return choice, true
		}
	}
	return openai.ChatCompletionChoice{}, false
}

// executeToolCalls dispatches the calls concurrently and returns one
// tool-role message per call, in the order the calls were requested.
func (e *Engine) executeToolCalls(ctx context.Context, catalog []upstream.ToolDescriptor, calls []openai.ToolCall) []openai.ChatCompletionMessage {
	if len(calls) == 0 {
		return nil
	}

	results := make([]openai.ChatCompletionMessage, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, tc openai.ToolCall) {
			defer wg.Done()

			name := tc.Function.Name
			texts, err := e.executeCall(ctx, catalog, tc)
			if err != nil {
				slog.Warn("tool execution error",
					"tool", name,
					"call_id", tc.ID,
					"error", err.Error(),
				)
				observability.ToolExecutionsTotal.WithLabelValues(name, "error").Inc()
				results[idx] = translate.ErrorMessage(tc.ID, name, err)
				return
			}

			observability.ToolExecutionsTotal.WithLabelValues(name, "success").Inc()
			results[idx] = translate.ResultMessage(tc.ID, name, texts)
		}(i, call)
	}

	wg.Wait()
	return results
}

// executeCall runs one tool call end to end: policy check, argument
// decoding and validation, override injection, upstream invocation and
// result flattening.
func (e *Engine) executeCall(ctx context.Context, catalog []upstream.ToolDescriptor, call openai.ToolCall) ([]string, error) {
	if call.Type != "" && call.Type != openai.ToolTypeFunction {
		return nil, fmt.Errorf("unsupported tool call type %q", call.Type)
	}

	name := call.Function.Name
	if !e.policy.IsAllowed(name) {
		return nil, &tools.DisabledError{Tool: name}
	}

	desc, err := tools.FindDescriptor(catalog, name)
	if err != nil {
		return nil, err
	}

	args, err := translate.CallArguments(call)
	if err != nil {
		return nil, err
	}

	if err := tools.ValidateArguments(desc, args); err != nil {
		return nil, err
	}

	// Overrides win over whatever the model supplied.
	for k, v := range e.cfg.ArgumentOverrides {
		args[k] = v
	}

	raw, err := e.source.InvokeTool(ctx, name, args)
	if err != nil {
		return nil, err
	}

	if e.policy.Suppress != nil {
		raw, err = tools.SuppressAnnotations(raw, e.policy.Suppress)
		if err != nil {
			return nil, err
		}
	}

	return format.Decode(raw).Texts(), nil
}
