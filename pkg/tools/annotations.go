package tools

import (
	"encoding/json"
	"strings"
)

// AnnotationRecord is the view of a result item a suppression predicate
// sees. Reference is the scripture reference string the item points at.
type AnnotationRecord struct {
	Reference string `json:"reference"`
	Type      string `json:"type,omitempty"`
}

// VerseLevelOnly suppresses records whose reference denotes a book- or
// chapter-level annotation rather than a specific verse. References of
// the form "JHN.3.16" or "John 3:16" are verse-level; "JHN" and "JHN.3"
// are not.
func VerseLevelOnly(r AnnotationRecord) bool {
	ref := strings.TrimSpace(r.Reference)
	if ref == "" {
		return true
	}
	if strings.Contains(ref, ":") {
		return false
	}
	return strings.Count(ref, ".") < 2
}

// SuppressAnnotations removes entries from the raw result's items array
// for which the predicate returns true, recomputing totalCount-style
// metadata to match. It must run on the raw structured payload, before
// any textual flattening, because the suppressed entries are only
// identifiable while the data is still structured.
//
// Payloads without an items array are returned unchanged.
func SuppressAnnotations(raw json.RawMessage, suppress func(AnnotationRecord) bool) (json.RawMessage, error) {
	if suppress == nil || len(raw) == 0 {
		return raw, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		// Not a JSON object; nothing to filter.
		return raw, nil
	}

	items, ok := doc["items"].([]any)
	if !ok {
		return raw, nil
	}

	kept := make([]any, 0, len(items))
	for _, item := range items {
		record, decodable := decodeRecord(item)
		if decodable && suppress(record) {
			continue
		}
		kept = append(kept, item)
	}
	doc["items"] = kept

	// Recompute count metadata wherever the payload carries it.
	if meta, ok := doc["metadata"].(map[string]any); ok {
		if _, present := meta["totalCount"]; present {
			meta["totalCount"] = len(kept)
		}
	}
	if _, present := doc["totalCount"]; present {
		doc["totalCount"] = len(kept)
	}

	return json.Marshal(doc)
}

// decodeRecord extracts the predicate view from one items entry.
func decodeRecord(item any) (AnnotationRecord, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return AnnotationRecord{}, false
	}
	var record AnnotationRecord
	if ref, ok := obj["reference"].(string); ok {
		record.Reference = ref
	}
	if typ, ok := obj["type"].(string); ok {
		record.Type = typ
	}
	return record, true
}
