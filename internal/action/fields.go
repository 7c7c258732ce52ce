package action

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	defaultTone     = "friendly"
	defaultPlatform = "Facebook"
	defaultLanguage = "Vietnamese"
)

func requireText(a Name, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &MissingFieldError{Action: a, Field: field}
	}
	return nil
}

func requireJSON(a Name, field string, v json.RawMessage) error {
	if !present(v) {
		return &MissingFieldError{Action: a, Field: field}
	}
	return nil
}

// present reports whether a raw JSON field carries a value.
func present(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) > 0 && !bytes.Equal(t, []byte("null"))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// optionalLine renders "label: value" when value is non-empty.
func optionalLine(sb *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteString("\n")
}

// optionalJSON renders a raw JSON context block when present.
func optionalJSON(sb *strings.Builder, label string, value json.RawMessage) {
	if !present(value) {
		return
	}
	sb.WriteString(label)
	sb.WriteString(":\n")
	sb.Write(bytes.TrimSpace(value))
	sb.WriteString("\n")
}
