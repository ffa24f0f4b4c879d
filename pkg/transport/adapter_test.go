package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rhuss/kanzel/pkg/fetch"
	"github.com/rhuss/kanzel/pkg/llm"
	"github.com/rhuss/kanzel/pkg/tools"
	"github.com/rhuss/kanzel/pkg/upstream"
)

// fakeCompleter returns a fixed response or error.
type fakeCompleter struct {
	resp openai.ChatCompletionResponse
	err  error

	gotReq *openai.ChatCompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.gotReq = &req
	return f.resp, f.err
}

// newUpstreamServer serves tools/list with a fixed catalog.
func newUpstreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Method != "tools/list" {
			t.Errorf("method = %q, want tools/list", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]any{
				"tools": []map[string]any{
					{
						"name":        "fetch_scripture",
						"description": "Fetch a passage.",
						"inputSchema": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"reference":    map[string]any{"type": "string"},
								"organization": map[string]any{"type": "string"},
							},
							"required": []string{"reference", "organization"},
						},
					},
					{
						"name":        "list_annotations",
						"description": "List annotations.",
						"inputSchema": map[string]any{"type": "object"},
					},
				},
			},
		})
	}))
}

func newTestAdapter(t *testing.T, completer Completer, policy tools.Policy) (*Adapter, *httptest.Server) {
	t.Helper()
	server := newUpstreamServer(t)
	t.Cleanup(server.Close)

	client := upstream.NewClient(server.URL, fetch.New(fetch.Config{}))
	return NewAdapter(completer, client, policy, DefaultConfig()), server
}

func TestChatCompletions(t *testing.T) {
	completer := &fakeCompleter{
		resp: openai.ChatCompletionResponse{
			ID: "chatcmpl-1",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "hello"}},
			},
		},
	}
	adapter, _ := newTestAdapter(t, completer, tools.Policy{})

	body := `{"model": "test", "messages": [{"role": "user", "content": "hi"}]}`
	rec := httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Choices[0].Message.Content != "hello" {
		t.Errorf("content = %q, want hello", resp.Choices[0].Message.Content)
	}
	if completer.gotReq == nil || completer.gotReq.Model != "test" {
		t.Errorf("completer request = %+v", completer.gotReq)
	}
}

func TestChatCompletionsRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
	}{
		{
			name:       "invalid json",
			body:       `{"model": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty messages",
			body:       `{"model": "test", "messages": []}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "streaming requested",
			body:       `{"model": "test", "stream": true, "messages": [{"role": "user", "content": "hi"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "wrong content type",
			body:        `{}`,
			contentType: "text/plain",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, _ := newTestAdapter(t, &fakeCompleter{}, tools.Policy{})

			req := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			adapter.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var errResp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("decoding error response: %v", err)
			}
			if errResp.Error == nil || errResp.Error.Type != ErrorTypeInvalidRequest {
				t.Errorf("error = %+v, want invalid_request_error", errResp.Error)
			}
		})
	}
}

func TestChatCompletionsAcceptsContentTypeParameters(t *testing.T) {
	completer := &fakeCompleter{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "hello"}},
			},
		},
	}
	adapter, _ := newTestAdapter(t, completer, tools.Policy{})

	body := `{"model": "test", "messages": [{"role": "user", "content": "hi"}]}`
	req := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for charset parameter, body = %s", rec.Code, rec.Body.String())
	}
}

func TestChatCompletionsEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "endpoint 5xx becomes bad gateway",
			err:        &llm.EndpointError{Status: 503, Message: "overloaded"},
			wantStatus: http.StatusBadGateway,
			wantType:   ErrorTypeUpstreamError,
		},
		{
			name:       "endpoint 4xx passes through",
			err:        &llm.EndpointError{Status: 401, Message: "bad key"},
			wantStatus: http.StatusUnauthorized,
			wantType:   ErrorTypeUpstreamError,
		},
		{
			name:       "upstream connection error becomes bad gateway",
			err:        &upstream.ConnectionError{Op: "tools/list", Err: errors.New("refused")},
			wantStatus: http.StatusBadGateway,
			wantType:   ErrorTypeUpstreamError,
		},
		{
			name:       "unknown error becomes server error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrorTypeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, _ := newTestAdapter(t, &fakeCompleter{err: tt.err}, tools.Policy{})

			body := `{"model": "test", "messages": [{"role": "user", "content": "hi"}]}`
			rec := httptest.NewRecorder()
			adapter.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var errResp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("decoding error response: %v", err)
			}
			if errResp.Error.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", errResp.Error.Type, tt.wantType)
			}
		})
	}
}

func TestListToolsAppliesPolicy(t *testing.T) {
	policy := tools.Policy{
		Allowed:      []string{"fetch_scripture"},
		HiddenParams: []string{"organization"},
	}
	adapter, _ := newTestAdapter(t, &fakeCompleter{}, policy)

	rec := httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/v1/tools", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var listing struct {
		Tools      []upstream.ToolDescriptor `json:"tools"`
		TotalCount int                       `json:"totalCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	if listing.TotalCount != 1 || len(listing.Tools) != 1 {
		t.Fatalf("listing = %+v, want exactly fetch_scripture", listing)
	}
	if listing.Tools[0].Name != "fetch_scripture" {
		t.Errorf("tool = %q", listing.Tools[0].Name)
	}
	if strings.Contains(string(listing.Tools[0].InputSchema), "organization") {
		t.Errorf("schema still mentions hidden param: %s", listing.Tools[0].InputSchema)
	}
}

func TestInvalidateTools(t *testing.T) {
	adapter, _ := newTestAdapter(t, &fakeCompleter{}, tools.Policy{})

	// Populate the cache.
	rec := httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/v1/tools", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("priming status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/v1/tools/invalidate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var status upstream.CacheStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.Populated {
		t.Error("cache still populated after invalidation")
	}
}

func TestHealthz(t *testing.T) {
	adapter, _ := newTestAdapter(t, &fakeCompleter{}, tools.Policy{})

	rec := httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyzRequiresUpstream(t *testing.T) {
	server := newUpstreamServer(t)
	server.Close()

	client := upstream.NewClient(server.URL, fetch.New(fetch.Config{MaxRetries: 1, BaseDelay: 1}))
	adapter := NewAdapter(&fakeCompleter{}, client, tools.Policy{}, DefaultConfig())

	rec := httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
