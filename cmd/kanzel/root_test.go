package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newToolServer serves a minimal tools/list response for CLI tests.
func newToolServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
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
						"inputSchema": map[string]any{"type": "object"},
					},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// clearConfigSources keeps config file discovery and environment
// overrides out of a CLI test.
func clearConfigSources(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir()) // keep a stray ./config.yaml out of discovery
	t.Setenv("KANZEL_CONFIG", "")
	t.Setenv("KANZEL_LLM_URL", "")
	t.Setenv("KANZEL_UPSTREAM_URL", "")
}

// Missing endpoints fail validation when neither config nor flags supply
// them. Runs before the flag test: cobra flag state persists across
// Execute calls within the process.
func TestMissingEndpointsFailValidation(t *testing.T) {
	clearConfigSources(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"tools"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Execute() = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "llm.base_url") {
		t.Errorf("error = %v, want mention of llm.base_url", err)
	}
}

// Endpoint flags alone must carry a subcommand through config validation
// when there is no config file and no environment.
func TestEndpointFlagsSufficeWithoutConfigFile(t *testing.T) {
	upstream := newToolServer(t)
	clearConfigSources(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"tools",
		"--llm-url", "http://localhost:4000",
		"--upstream-url", upstream.URL,
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "fetch_scripture") {
		t.Errorf("output = %q, want tool listing", out.String())
	}
}
