package tools

import (
	"encoding/json"

	"github.com/rhuss/kanzel/pkg/upstream"
)

// Policy restricts which tools and parameters are exposed to a caller.
// A Policy is immutable for the lifetime of one orchestrator instance;
// swap in a new value to change it.
type Policy struct {
	// Allowed is the allow-list of tool names. Empty means all tools
	// are allowed.
	Allowed []string

	// HiddenParams are parameter names removed from every exposed tool
	// schema, both from the property map and the required list.
	HiddenParams []string

	// Suppress, when non-nil, is applied to annotation records in raw
	// tool results; records for which it returns true are removed.
	Suppress func(AnnotationRecord) bool
}

// IsAllowed reports whether the named tool passes the allow-list.
func (p Policy) IsAllowed(name string) bool {
	if len(p.Allowed) == 0 {
		return true
	}
	for _, allowed := range p.Allowed {
		if allowed == name {
			return true
		}
	}
	return false
}

// Restrict returns the catalog filtered by the policy: only allowed
// tools are retained, in catalog order, and hidden parameters are
// removed from each retained descriptor's schema. Restrict is
// idempotent.
func (p Policy) Restrict(catalog []upstream.ToolDescriptor) []upstream.ToolDescriptor {
	var out []upstream.ToolDescriptor
	for _, desc := range catalog {
		if !p.IsAllowed(desc.Name) {
			continue
		}
		if len(p.HiddenParams) > 0 {
			desc.InputSchema = hideParams(desc.InputSchema, p.HiddenParams)
		}
		out = append(out, desc)
	}
	return out
}

// FindDescriptor locates a tool by name in the catalog.
func FindDescriptor(catalog []upstream.ToolDescriptor, name string) (upstream.ToolDescriptor, error) {
	for _, desc := range catalog {
		if desc.Name == name {
			return desc, nil
		}
	}
	return upstream.ToolDescriptor{}, &NotFoundError{Tool: name}
}

// hideParams removes the named parameters from a JSON Schema's property
// map and required list. A parameter listed in required but absent from
// properties is still removed from required. Schemas that do not decode
// as objects are passed through untouched.
func hideParams(schema json.RawMessage, hidden []string) json.RawMessage {
	if len(schema) == 0 {
		return schema
	}

	var doc map[string]any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return schema
	}

	hiddenSet := make(map[string]bool, len(hidden))
	for _, name := range hidden {
		hiddenSet[name] = true
	}

	if props, ok := doc["properties"].(map[string]any); ok {
		for name := range hiddenSet {
			delete(props, name)
		}
	}

	if required, ok := doc["required"].([]any); ok {
		kept := make([]any, 0, len(required))
		for _, entry := range required {
			if name, ok := entry.(string); ok && hiddenSet[name] {
				continue
			}
			kept = append(kept, entry)
		}
		doc["required"] = kept
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return schema
	}
	return out
}
