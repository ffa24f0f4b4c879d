// Command mock-upstream runs a deterministic tool-resource server for
// development and testing. It serves a small scripture catalog with
// canned passages and annotations.
//
// Configuration:
//
//	MOCK_PORT       - Listen port (default: 9000)
//	MOCK_COLD_START - Number of requests answered with 503 before the
//	                  server comes up (default: 0), for exercising the
//	                  gateway's retry behavior
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9000"
	}
	coldStart, _ := strconv.Atoi(os.Getenv("MOCK_COLD_START"))

	h := &handler{coldStart: int32(coldStart)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", h.handleRPC)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock upstream starting", "port", port, "cold_start", coldStart)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock upstream failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock upstream shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

type handler struct {
	served    atomic.Int32
	coldStart int32
}

// --- Wire types ---

type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      any        `json:"id"`
	Method  string     `json:"method"`
	Params  *rpcParams `json:"params,omitempty"`
}

type rpcParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *handler) handleRPC(w http.ResponseWriter, r *http.Request) {
	// Simulate a cold-starting backend.
	if h.served.Add(1) <= h.coldStart {
		slog.Info("cold start, rejecting request")
		http.Error(w, "warming up", http.StatusServiceUnavailable)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "tools/list":
		resp.Result = map[string]any{"tools": catalog}

	case "tools/call":
		if req.Params == nil {
			resp.Error = &rpcError{Code: -32602, Message: "missing params"}
			break
		}
		result, rpcErr := callTool(req.Params.Name, req.Params.Arguments)
		resp.Result = result
		resp.Error = rpcErr

	default:
		resp.Error = &rpcError{Code: -32601, Message: "method not found"}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Catalog ---

var catalog = []map[string]any{
	{
		"name":        "fetch_scripture",
		"description": "Fetch a scripture passage by reference, e.g. JHN.3.16.",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reference":    map[string]any{"type": "string"},
				"translation":  map[string]any{"type": "string"},
				"organization": map[string]any{"type": "string"},
			},
			"required": []string{"reference", "organization"},
		},
	},
	{
		"name":        "list_annotations",
		"description": "List annotations attached to a book, chapter or verse.",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reference":    map[string]any{"type": "string"},
				"organization": map[string]any{"type": "string"},
			},
			"required": []string{"organization"},
		},
	},
}

var passages = map[string]string{
	"JHN.3.16": "For God so loved the world, that he gave his only begotten Son, " +
		"that whosoever believeth in him should not perish, but have everlasting life.",
	"GEN.1.1": "In the beginning God created the heaven and the earth.",
	"PSA.23.1": "The LORD is my shepherd; I shall not want.",
}

var annotations = []map[string]any{
	{"reference": "JHN", "type": "note", "text": "Gospel of John, book-level study note."},
	{"reference": "JHN.3", "type": "note", "text": "Chapter overview: the new birth."},
	{"reference": "JHN.3.16", "type": "highlight", "text": "Often called the gospel in miniature."},
	{"reference": "GEN.1.1", "type": "note", "text": "The creation account begins."},
}

func callTool(name string, args map[string]any) (any, *rpcError) {
	switch name {
	case "fetch_scripture":
		ref, _ := args["reference"].(string)
		text, ok := passages[ref]
		if !ok {
			return nil, &rpcError{Code: -32000, Message: "unknown reference " + ref}
		}
		return map[string]any{
			"reference": ref,
			"text":      text,
			"copyright": "Public domain.",
		}, nil

	case "list_annotations":
		ref, _ := args["reference"].(string)
		var items []map[string]any
		for _, a := range annotations {
			if ref == "" || a["reference"] == ref || strings.HasPrefix(a["reference"].(string), ref+".") {
				items = append(items, a)
			}
		}
		if items == nil {
			items = []map[string]any{}
		}
		return map[string]any{
			"items":    items,
			"metadata": map[string]any{"totalCount": len(items)},
		}, nil

	default:
		return nil, &rpcError{Code: -32601, Message: "unknown tool " + name}
	}
}
