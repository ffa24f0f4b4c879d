// Package llm wraps the chat-completion endpoint client. Errors from
// the endpoint are terminal for the whole request and are never retried
// here; the provider's status code and message are preserved for the
// caller.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rhuss/kanzel/pkg/observability"
)

// Client is the chat-completion endpoint contract consumed by the
// orchestration engine.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// EndpointError is a terminal failure from the LLM endpoint:
// authentication, unknown model, provider-side rate limiting, and the
// like. Status and Message carry the provider's original response.
type EndpointError struct {
	Status  int
	Type    string
	Message string
}

func (e *EndpointError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm endpoint: status %d: %s", e.Status, e.Message)
	}
	return "llm endpoint: " + e.Message
}

// Config holds endpoint connection settings.
type Config struct {
	// BaseURL points at an OpenAI-compatible endpoint. Empty means the
	// OpenAI default.
	BaseURL string

	// APIKey authenticates against the endpoint.
	APIKey string

	// Timeout bounds each request. Defaults to 120s; a chat completion
	// with a large tool catalog can legitimately take a while.
	Timeout time.Duration
}

// OpenAIClient implements Client on an OpenAI-compatible backend.
type OpenAIClient struct {
	inner *openai.Client
}

// New creates a client for the configured endpoint.
func New(cfg Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{inner: openai.NewClientWithConfig(clientCfg)}
}

// CreateChatCompletion performs one chat-completion request, recording
// latency and token metrics and mapping failures to EndpointError.
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	start := time.Now()
	resp, err := c.inner.CreateChatCompletion(ctx, req)
	observability.LLMLatency.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.LLMRequestsTotal.WithLabelValues(req.Model, "error").Inc()
		return openai.ChatCompletionResponse{}, mapError(err)
	}

	observability.LLMRequestsTotal.WithLabelValues(req.Model, "success").Inc()
	observability.LLMTokensTotal.WithLabelValues(req.Model, "input").Add(float64(resp.Usage.PromptTokens))
	observability.LLMTokensTotal.WithLabelValues(req.Model, "output").Add(float64(resp.Usage.CompletionTokens))
	return resp, nil
}

// mapError converts go-openai errors into EndpointError, keeping the
// provider's status code and message.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &EndpointError{
			Status:  apiErr.HTTPStatusCode,
			Type:    apiErr.Type,
			Message: apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &EndpointError{
			Status:  reqErr.HTTPStatusCode,
			Message: reqErr.Error(),
		}
	}

	return &EndpointError{Message: err.Error()}
}
