// Package format decodes raw tool results into a tagged union of known
// shapes and renders them as human-readable text.
//
// The upstream server has no fixed result contract, so the known shapes
// are enumerated here in one place, with a raw-JSON fallback for
// anything unrecognized. Adding a shape means adding a Kind, a decode
// attempt, and a render arm; nothing outside this package changes.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags the decoded result shape.
type Kind int

const (
	// KindBlocks is a content-block result: {"content": [{"type": "text", "text": ...}, ...]}.
	KindBlocks Kind = iota

	// KindPassage is a scripture passage: {"text": ..., "reference": ...}.
	KindPassage

	// KindAnnotations is an annotation listing: {"items": [...], "metadata": {...}}.
	KindAnnotations

	// KindRaw is the fallback for unrecognized payloads.
	KindRaw
)

// Block is one entry of a content-block result. Only text blocks carry
// renderable content.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Passage is a single scripture passage.
type Passage struct {
	Reference string `json:"reference,omitempty"`
	Text      string `json:"text"`
	Copyright string `json:"copyright,omitempty"`
}

// Annotation is one entry of an annotation listing.
type Annotation struct {
	Reference string `json:"reference"`
	Type      string `json:"type,omitempty"`
	Text      string `json:"text,omitempty"`
}

// AnnotationList is an annotation listing with its count metadata.
type AnnotationList struct {
	Items    []Annotation `json:"items"`
	Metadata struct {
		TotalCount int `json:"totalCount"`
	} `json:"metadata"`
}

// Result is the decoded form of one raw tool result.
type Result struct {
	Kind        Kind
	Blocks      []Block
	Passage     *Passage
	Annotations *AnnotationList
	Raw         json.RawMessage
}

// Decode classifies a raw result payload into the union. It never
// fails: anything unrecognized becomes KindRaw.
func Decode(raw json.RawMessage) Result {
	var probe struct {
		Content []Block         `json:"content"`
		Text    *string         `json:"text"`
		Items   json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Result{Kind: KindRaw, Raw: raw}
	}

	switch {
	case len(probe.Content) > 0:
		return Result{Kind: KindBlocks, Blocks: probe.Content}

	case probe.Text != nil:
		var passage Passage
		if err := json.Unmarshal(raw, &passage); err != nil {
			return Result{Kind: KindRaw, Raw: raw}
		}
		return Result{Kind: KindPassage, Passage: &passage}

	case len(probe.Items) > 0:
		var list AnnotationList
		if err := json.Unmarshal(raw, &list); err != nil {
			return Result{Kind: KindRaw, Raw: raw}
		}
		return Result{Kind: KindAnnotations, Annotations: &list}

	default:
		return Result{Kind: KindRaw, Raw: raw}
	}
}

// Texts returns the result as a sequence of text blocks for transcript
// flattening.
func (r Result) Texts() []string {
	switch r.Kind {
	case KindBlocks:
		var texts []string
		for _, block := range r.Blocks {
			if block.Type == "text" && block.Text != "" {
				texts = append(texts, block.Text)
			}
		}
		return texts

	case KindPassage:
		text := r.Passage.Text
		if r.Passage.Reference != "" {
			text = r.Passage.Reference + " — " + text
		}
		return []string{text}

	case KindAnnotations:
		var lines []string
		for _, item := range r.Annotations.Items {
			line := item.Reference
			if item.Text != "" {
				line = fmt.Sprintf("%s: %s", item.Reference, item.Text)
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			return []string{"no annotations"}
		}
		return []string{strings.Join(lines, "\n")}

	default:
		return []string{compact(r.Raw)}
	}
}

// Render returns a single human-readable string for CLI display.
func (r Result) Render() string {
	return strings.Join(r.Texts(), "\n\n")
}

// compact normalizes raw JSON to a single line; undecodable bytes are
// returned as-is.
func compact(raw json.RawMessage) string {
	var buf strings.Builder
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(decoded); err != nil {
		return string(raw)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
