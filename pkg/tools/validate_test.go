package tools

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rhuss/kanzel/pkg/upstream"
)

func TestValidateArguments(t *testing.T) {
	desc := upstream.ToolDescriptor{
		Name: "fetch_scripture",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"reference": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["reference"]
		}`),
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"reference": "John 3:16"}, false},
		{"valid with optional", map[string]any{"reference": "John 3:16", "limit": 5}, false},
		{"missing required", map[string]any{"limit": 5}, true},
		{"wrong type", map[string]any{"reference": 42}, true},
		{"nil arguments", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArguments(desc, tt.args)
			if tt.wantErr {
				var invalid *InvalidArgumentsError
				if !errors.As(err, &invalid) {
					t.Fatalf("error = %v, want *InvalidArgumentsError", err)
				}
				if invalid.Tool != "fetch_scripture" {
					t.Errorf("Tool = %q", invalid.Tool)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateArgumentsNoSchema(t *testing.T) {
	desc := upstream.ToolDescriptor{Name: "search_topics"}
	if err := ValidateArguments(desc, map[string]any{"anything": true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
