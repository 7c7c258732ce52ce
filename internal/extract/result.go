package extract

import (
	"encoding/json"
	"sort"
)

// Result is the structured reply returned to callers. Content is the raw
// completion text; Fields holds the best-effort extracted values.
// It encodes as one flat JSON object.
type Result struct {
	Content string
	Fields  map[string]any
}

// Set records an extracted field.
func (r *Result) Set(key string, v any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[key] = v
}

// Get returns an extracted field.
func (r Result) Get(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Keys returns the extracted field names, sorted.
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int returns an integer field, accepting the float64 form produced by decoding.
func (r Result) Int(key string) (int, bool) {
	switch v := r.Fields[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Float returns a numeric field.
func (r Result) Float(key string) (float64, bool) {
	switch v := r.Fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Strings returns a string list field.
func (r Result) Strings(key string) []string {
	switch v := r.Fields[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		m[k] = v
	}
	m["content"] = r.Content
	return json.Marshal(m)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["content"].(string); ok {
		r.Content = v
	}
	delete(raw, "content")
	r.Fields = raw
	return nil
}
