package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rhuss/kanzel/pkg/tools"
	"github.com/rhuss/kanzel/pkg/upstream"
)

// Completer produces a chat completion for a request. It is implemented
// by engine.Engine.
type Completer interface {
	Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Adapter serves the gateway API over HTTP.
type Adapter struct {
	completer Completer
	upstream  *upstream.Client
	policy    tools.Policy
	mux       *http.ServeMux
	config    Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
	}
}

// NewAdapter creates an HTTP adapter routing to the given completer and
// upstream client. Middleware is applied to every route in the given order.
func NewAdapter(completer Completer, client *upstream.Client, policy tools.Policy, cfg Config) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		completer: completer,
		upstream:  client,
		policy:    policy,
		mux:       http.NewServeMux(),
		config:    cfg,
	}

	a.mux.HandleFunc("POST /v1/chat/completions", a.handleChatCompletions)
	a.mux.HandleFunc("GET /v1/tools", a.handleListTools)
	a.mux.HandleFunc("POST /v1/tools/invalidate", a.handleInvalidateTools)
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to
// integrate with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// handleChatCompletions handles POST /v1/chat/completions.
func (a *Adapter) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			WriteError(w,
				NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w,
				NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		WriteError(w,
			NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	if req.Stream {
		WriteError(w,
			NewInvalidRequestError("stream", "streaming is not supported"),
			http.StatusBadRequest,
		)
		return
	}
	if len(req.Messages) == 0 {
		WriteError(w,
			NewInvalidRequestError("messages", "messages must not be empty"),
			http.StatusBadRequest,
		)
		return
	}

	resp, err := a.completer.Complete(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// toolListing is the response body for GET /v1/tools.
type toolListing struct {
	Tools      []upstream.ToolDescriptor `json:"tools"`
	TotalCount int                       `json:"totalCount"`
	Cache      upstream.CacheStatus      `json:"cache"`
}

// handleListTools handles GET /v1/tools. It reports the catalog as the
// model sees it: allow-list applied and hidden parameters removed.
func (a *Adapter) handleListTools(w http.ResponseWriter, r *http.Request) {
	catalog, err := a.upstream.ListTools(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	restricted := a.policy.Restrict(catalog)
	if restricted == nil {
		restricted = []upstream.ToolDescriptor{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toolListing{
		Tools:      restricted,
		TotalCount: len(restricted),
		Cache:      a.upstream.Cache().Status(),
	})
}

// handleInvalidateTools handles POST /v1/tools/invalidate. The next
// catalog access repopulates the cache from the upstream server.
func (a *Adapter) handleInvalidateTools(w http.ResponseWriter, r *http.Request) {
	a.upstream.Cache().Invalidate()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.upstream.Cache().Status())
}

func (a *Adapter) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz reports readiness. The gateway is ready once it can reach
// the upstream catalog; a populated cache short-circuits the check.
func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !a.upstream.Cache().Status().Populated {
		if _, err := a.upstream.ListTools(r.Context()); err != nil {
			WriteError(w, &APIError{
				Type:    ErrorTypeUpstreamError,
				Message: "upstream catalog unavailable: " + err.Error(),
			}, http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ready"}`))
}
